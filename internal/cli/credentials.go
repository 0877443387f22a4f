package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"keyword-research-go/internal/bootstrap"
	"keyword-research-go/pkg/api"
)

func newCredentialsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check-credentials",
		Short: "Verify the DataForSEO login and show the account balance",
		RunE:  runCheckCredentials,
	}
}

func runCheckCredentials(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig(cmd, map[string]string{})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return checkCredentials(ctx, app.DataForSEO, cmd.OutOrStdout())
}

func checkCredentials(ctx context.Context, checker api.CredentialChecker, w io.Writer) error {
	info, err := checker.CheckCredentials(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "DataForSEO credentials OK: %s (balance %.2f)\n", info.Login, info.Balance)
	return err
}
