package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type credentialOptions struct {
	Email    string
	Password string
	Name     string
}

type tokenResult struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func newSignupCmd(opts *globalOptions) *cobra.Command {
	var options credentialOptions

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and print its token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var res tokenResult
			body := map[string]string{"email": options.Email, "password": options.Password, "name": options.Name}
			if err := opts.client().post(cmd.Context(), "/api/auth/signup", body, &res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "signed up as %s (%s)\n", res.User.Email, res.User.ID)
			fmt.Fprintln(cmd.OutOrStdout(), res.AccessToken)
			return nil
		},
	}

	addCredentialFlags(cmd, &options)
	cmd.Flags().StringVar(&options.Name, "name", "", "display name")
	return cmd
}

func newLoginCmd(opts *globalOptions) *cobra.Command {
	var options credentialOptions

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var res tokenResult
			body := map[string]string{"email": options.Email, "password": options.Password}
			if err := opts.client().post(cmd.Context(), "/api/auth/login", body, &res); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.AccessToken)
			return nil
		},
	}

	addCredentialFlags(cmd, &options)
	return cmd
}

func addCredentialFlags(cmd *cobra.Command, options *credentialOptions) {
	cmd.Flags().StringVar(&options.Email, "email", "", "account email")
	cmd.Flags().StringVar(&options.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
}
