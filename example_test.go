package multipart_test

import (
	"context"
	"fmt"

	multipart "github.com/input-output-hk/catalyst-forge-libs/aws/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/internal/testutil"
)

func ExamplePartition() {
	ranges, err := multipart.Partition(12, 5)
	if err != nil {
		panic(err)
	}
	for i, r := range ranges {
		fmt.Printf("part %d: bytes %d-%d\n", i+1, r.Start, r.End)
	}
	// Output:
	// part 1: bytes 0-4
	// part 2: bytes 5-9
	// part 3: bytes 10-11
}

func ExampleOrchestrator_Run() {
	orch, err := multipart.NewWithClient(&testutil.MockS3Client{}, multipart.Config{
		Bucket: "my-bucket",
		Region: "eu-west-1",
	})
	if err != nil {
		panic(err)
	}

	payload := make([]byte, 6*testutil.MiB)
	outcome, err := orch.Run(context.Background(), "backups/db.tar", payload)
	if err != nil {
		if n, ok := errors.PartNumberOf(err); ok {
			fmt.Println("part failed:", n)
		}
		return
	}
	fmt.Println(outcome.Status, outcome.Parts, outcome.Location)
	// Output: committed 2 https://s3.eu-west-1.amazonaws.com/my-bucket/backups/db.tar
}
