package main

import (
	"github.com/osaleh1i1/threatexchange/cmd/lambda"
	"github.com/osaleh1i1/threatexchange/pkg/aws"
)

func main() {
	lambda.StartRawEventHandler(makeHandler)
}

func makeHandler(cfg aws.Config) (lambda.RawEventHandler, error) {
	dispatcher, err := aws.Construct(cfg)
	if err != nil {
		return nil, err
	}
	return dispatcher.Handle, nil
}
