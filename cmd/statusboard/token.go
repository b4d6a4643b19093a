package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/statusboard/statusboard/internal/auth"
)

// mintToken prints a signed admin token for the given subject.
func mintToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	subject := fs.String("subject", "", "operator identity recorded in the token (required)")
	ttl := fs.Duration("ttl", auth.DefaultTokenExpiry, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subject == "" {
		return fmt.Errorf("-subject is required")
	}

	jwtService, err := auth.NewJWTService(auth.ConfigFromEnv())
	if err != nil {
		return err
	}

	token, expiresAt, err := jwtService.GenerateAdminToken(*subject, *ttl)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "%s\n# expires %s\n", token, expiresAt.UTC().Format(time.RFC3339))
	return err
}
