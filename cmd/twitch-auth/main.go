package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tmi-chatter/auth"
	"tmi-chatter/tokens"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "twitch-auth",
		Short:        "Manage the chat token file used by chat-logger",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("file", tokens.DefaultTokenFile, "Token file path")
	_ = v.BindPFlag("twitch_token_file", root.PersistentFlags().Lookup("file"))

	root.AddCommand(newValidateCmd(v), newSaveCmd(v), newRefreshCmd(v))
	return root
}

func store(v *viper.Viper) tokens.FileTokenStore {
	return tokens.FileTokenStore{Path: v.GetString("twitch_token_file")}
}

func newValidateCmd(v *viper.Viper) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a token (flag or token file) against Twitch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				tok, err := store(v).LoadToken()
				if err != nil {
					return err
				}
				token = tok.Access
			}

			res, err := auth.ValidateToken(cmd.Context(), nil, token)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "login=%s user_id=%s expires_in=%s scopes=%v\n",
				res.Login, res.UserID, res.ExpiresIn, res.Scopes)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token, with or without oauth: prefix")
	return cmd
}

func newSaveCmd(v *viper.Viper) *cobra.Command {
	var (
		access    string
		refresh   string
		login     string
		expiresIn time.Duration
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a user token to the token file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok := tokens.Token{Access: access, Refresh: refresh, Login: login}

			// Без --expires-in срок и логин берутся из /oauth2/validate.
			if expiresIn <= 0 {
				res, err := auth.ValidateToken(cmd.Context(), nil, access)
				if err != nil {
					return err
				}
				expiresIn = res.ExpiresIn
				if tok.Login == "" {
					tok.Login = res.Login
				}
			}
			tok.ExpiresAt = time.Now().Add(expiresIn)

			if err := store(v).SaveToken(tok); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok, expires at %s\n", tok.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&access, "access", "", "Access token")
	cmd.Flags().StringVar(&refresh, "refresh", "", "Refresh token")
	cmd.Flags().StringVar(&login, "login", "", "Token owner login")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "Token lifetime; validated against Twitch when omitted")
	_ = cmd.MarkFlagRequired("access")

	return cmd
}

func newRefreshCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the token file using TWITCH_CLIENT_ID and TWITCH_CLIENT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			clientID := v.GetString("twitch_client_id")
			clientSecret := v.GetString("twitch_client_secret")
			if clientID == "" || clientSecret == "" {
				return fmt.Errorf("требуются TWITCH_CLIENT_ID и TWITCH_CLIENT_SECRET")
			}

			manager := tokens.NewManager(store(v), func(ctx context.Context, refreshToken string) (tokens.Token, error) {
				tok, err := auth.RefreshToken(ctx, clientID, clientSecret, refreshToken)
				if err != nil {
					return tokens.Token{}, err
				}
				return tokens.Token{Access: tok.AccessToken, Refresh: tok.RefreshToken, ExpiresAt: tok.Expiry}, nil
			})

			tok, err := manager.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok, expires at %s\n", tok.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().String("client-id", "", "Twitch application client id")
	cmd.Flags().String("client-secret", "", "Twitch application client secret")
	_ = v.BindPFlag("twitch_client_id", cmd.Flags().Lookup("client-id"))
	_ = v.BindPFlag("twitch_client_secret", cmd.Flags().Lookup("client-secret"))

	return cmd
}
