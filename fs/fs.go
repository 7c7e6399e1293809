package appfs

import "embed"

// FS holds the files shipped inside the binaries.
//
//go:embed migrations/*.sql templates/email/* seed/*.yaml assets/*
var FS embed.FS

const (
	MigrationsDir       = "migrations"
	EmailTemplatesDir   = "templates/email"
	SeedQuestionsFile   = "seed/questions.yaml"
	CommonPasswordsFile = "assets/common-passwords.txt.gz"
)
