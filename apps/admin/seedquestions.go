package main

import (
	"context"
	"fmt"
	"io"
	"os"

	appfs "github.com/jhsobrinho/educareapp-sub009/fs"
)

// seedQuestions upserts the questions of path, or of the embedded bank when path is empty.
func (cli *commandLine) seedQuestions(path string) error {
	var f io.ReadCloser
	var err error
	if path == "" {
		f, err = appfs.FS.Open(appfs.SeedQuestionsFile)
	} else {
		f, err = os.Open(path)
	}
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	created, updated, err := cli.bank.Seed(context.Background(), f, cli.validate)
	if err != nil {
		return err
	}
	fmt.Printf("questions: %d created, %d updated\n", created, updated)
	return nil
}
