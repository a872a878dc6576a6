package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func settingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or save the API credentials",
	}
	cmd.AddCommand(settingsShowCmd(a), settingsSaveCmd(a))
	return cmd
}

func settingsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current credentials with the keys masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := a.sess.Settings.Load(cmd.Context()).Masked()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cloudflare_email:   %s\n", creds.CloudflareEmail)
			fmt.Fprintf(out, "cloudflare_api_key: %s\n", creds.CloudflareAPIKey)
			fmt.Fprintf(out, "registrar_api_url:  %s\n", creds.RegistrarAPIURL)
			fmt.Fprintf(out, "registrar_api_key:  %s\n", creds.RegistrarAPIKey)
			return nil
		},
	}
}

// settings save 在已有凭据上覆盖命令行给出的字段, 再整体提交
func settingsSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Validate and save the credentials on the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			site := a.sess.Settings.Options().Console
			if err := a.sess.Settings.Save(ctx, site, a.loadCredentials(ctx)); err != nil {
				return err
			}
			if b, ok := a.sess.State.Banner(site.Slot); ok {
				fmt.Fprintln(cmd.OutOrStdout(), b.Message)
			}
			return nil
		},
	}
}
