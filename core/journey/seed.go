package journey

import (
	"context"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Questions []NewQuestion `yaml:"questions"`
}

// ParseSeed decodes & validates a YAML question seed file.
func ParseSeed(r io.Reader, validate *validator.Validate) ([]NewQuestion, error) {
	var sf seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return nil, errors.Wrap(err, "decoding seed file")
	}

	seen := make(map[string]bool, len(sf.Questions))
	for i := range sf.Questions {
		nq := &sf.Questions[i]
		if err := nq.Validate(validate); err != nil {
			return nil, errors.Wrapf(err, "question #%d (%s)", i+1, nq.Code)
		}
		if nq.Code == "" {
			return nil, errors.Errorf("question #%d: code is required", i+1)
		}
		if seen[nq.Code] {
			return nil, errors.Errorf("question #%d: duplicate code %q", i+1, nq.Code)
		}
		seen[nq.Code] = true
	}
	return sf.Questions, nil
}

// Seed upserts the questions of a YAML seed file into the bank.
func (b *Bank) Seed(ctx context.Context, r io.Reader, validate *validator.Validate) (created, updated int, err error) {
	nqs, err := ParseSeed(r, validate)
	if err != nil {
		return 0, 0, err
	}
	return b.Upsert(ctx, nqs)
}
