package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yuriy-kovalchuk/desec-dns01/internal/acme"
)

// challenge is one validation record to add or remove.
type challenge struct {
	// Set for lego exec RAW mode; the digest is computed from keyAuth.
	domain, token, keyAuth string

	fqdn, value string
}

// challengeArgs accepts the three calling conventions:
//
//	present                                certbot hook, CERTBOT_DOMAIN / CERTBOT_VALIDATION
//	present <fqdn> <value>                 lego exec default mode
//	present -- <domain> <token> <keyAuth>  lego exec RAW mode
func challengeArgs(cmd *cobra.Command, args []string) error {
	switch len(args) {
	case 0, 2, 3:
		return nil
	default:
		return fmt.Errorf("expected no arguments, <fqdn> <value>, or <domain> <token> <keyAuth>; got %d", len(args))
	}
}

func parseChallenge(args []string) (challenge, error) {
	switch len(args) {
	case 3:
		return challenge{domain: args[0], token: args[1], keyAuth: args[2]}, nil
	case 2:
		return challenge{fqdn: args[0], value: args[1]}, nil
	}

	domain := os.Getenv("CERTBOT_DOMAIN")
	value := os.Getenv("CERTBOT_VALIDATION")
	if domain == "" || value == "" {
		return challenge{}, fmt.Errorf("no arguments given and CERTBOT_DOMAIN / CERTBOT_VALIDATION are not set")
	}
	return challenge{fqdn: acme.ChallengeFQDN(domain), value: value}, nil
}

func newCmdPresent(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "present [<fqdn> <value> | <domain> <token> <keyAuth>]",
		Short: "Add a validation value to the TXT rrset",
		Args:  challengeArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChallenge(cmd.Context(), opts, args, true)
		},
	}
}

func newCmdCleanup(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup [<fqdn> <value> | <domain> <token> <keyAuth>]",
		Short: "Remove a validation value from the TXT rrset",
		Args:  challengeArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChallenge(cmd.Context(), opts, args, false)
		},
	}
}

func runChallenge(ctx context.Context, opts *rootOptions, args []string, present bool) error {
	ch, err := parseChallenge(args)
	if err != nil {
		return err
	}
	solver, err := opts.newSolver()
	if err != nil {
		return err
	}

	switch {
	case ch.keyAuth != "" && present:
		err = solver.PresentKeyAuth(ctx, ch.domain, ch.keyAuth)
	case ch.keyAuth != "":
		err = solver.CleanUpKeyAuth(ctx, ch.domain, ch.keyAuth)
	case present:
		err = solver.PresentRecord(ctx, ch.fqdn, ch.value)
	default:
		err = solver.CleanUpRecord(ctx, ch.fqdn, ch.value)
	}
	if err != nil {
		return err
	}

	opts.log.Info("done", "present", present)
	return nil
}
