// Command secvault is a CLI client for the secure vault service.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/secure-vault/internal/convert"
	"github.com/and161185/secure-vault/internal/model"
	"github.com/and161185/secure-vault/internal/vaultpb"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

type connectFunc func(ctx context.Context, bearer string) (vaultpb.VaultClient, io.Closer, error)

// app holds what the subcommands share.
type app struct {
	dial    dialOptions
	timeout time.Duration
	in      *bufio.Reader
	out     io.Writer
	errOut  io.Writer
	connect connectFunc
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	a := &app{in: bufio.NewReader(in), out: out, errOut: errOut, timeout: 30 * time.Second}
	a.connect = func(ctx context.Context, bearer string) (vaultpb.VaultClient, io.Closer, error) {
		return dial(ctx, a.dial, bearer)
	}
	return a
}

// call runs fn against a connected client with the command timeout applied.
func (a *app) call(cmd *cobra.Command, bearer string, fn func(ctx context.Context, cl vaultpb.VaultClient) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
	defer cancel()
	cl, closer, err := a.connect(ctx, bearer)
	if err != nil {
		return err
	}
	defer closer.Close()
	return fn(ctx, cl)
}

// authed is call with the cached access token.
func (a *app) authed(cmd *cobra.Command, fn func(ctx context.Context, cl vaultpb.VaultClient) error) error {
	tf, err := loadToken()
	if err != nil {
		return err
	}
	return a.call(cmd, tf.AccessToken, fn)
}

func (a *app) password(given string) (string, error) {
	if given != "" {
		return given, nil
	}
	return readSecret(a.in, a.errOut, "Password: ")
}

func (a *app) storeTokens(username string, resp *structpb.Struct) error {
	tok, err := convert.FromProtoTokens(resp)
	if err != nil {
		return err
	}
	if tok.AccessToken == "" {
		return errors.New("server returned no token")
	}
	if err := saveToken(tokenFile{Username: username, AccessToken: tok.AccessToken, ExpiresAt: tok.ExpiresAt}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s\n", username)
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "secvault",
		Short:         "Secure vault client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.dial.addr, "addr", "localhost:8443", "server addr")
	root.PersistentFlags().StringVar(&a.dial.caPath, "cacert", "", "CA cert (PEM)")
	root.PersistentFlags().BoolVar(&a.dial.skipVerify, "insecure", false, "skip cert verify (dev)")
	root.PersistentFlags().BoolVar(&a.dial.plaintext, "plaintext", false, "no TLS (dev server without certificates)")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", a.timeout, "per-command timeout")

	root.AddCommand(
		versionCmd(a),
		registerCmd(a),
		loginCmd(a),
		otpCmd(a),
		enable2FACmd(a),
		logoutCmd(a),
		uploadCmd(a),
		readCmd(a),
		shareCmd(a),
		metaCmd(a),
	)
	return root
}

func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print client version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "secvault %s (%s)\n", version, buildDate)
		},
	}
}

func registerCmd(a *app) *cobra.Command {
	var username, pw string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.password(pw)
			if err != nil {
				return err
			}
			return a.call(cmd, "", func(ctx context.Context, cl vaultpb.VaultClient) error {
				if _, err := cl.Register(ctx, convert.ToProtoCredentials(username, p)); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "registered %s\n", username)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", "", "username")
	cmd.Flags().StringVarP(&pw, "password", "p", "", "password (prompted when empty)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func loginCmd(a *app) *cobra.Command {
	var username, pw string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and cache the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.password(pw)
			if err != nil {
				return err
			}
			return a.call(cmd, "", func(ctx context.Context, cl vaultpb.VaultClient) error {
				resp, err := cl.Login(ctx, convert.ToProtoCredentials(username, p))
				if err != nil {
					return err
				}
				if !convert.Bool(resp, convert.FieldSecondFactorRequired) {
					return a.storeTokens(username, resp)
				}

				code, err := readLine(a.in, a.errOut, "One-time code: ")
				if err != nil || code == "" {
					fmt.Fprintf(a.out, "one-time code sent; finish with: secvault otp -u %s <code>\n", username)
					return nil
				}
				resp, err = cl.SubmitSecondFactor(ctx, otpRequest(username, code))
				if err != nil {
					return err
				}
				return a.storeTokens(username, resp)
			})
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", "", "username")
	cmd.Flags().StringVarP(&pw, "password", "p", "", "password (prompted when empty)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func otpRequest(username, code string) *structpb.Struct {
	s := convert.SetString(convert.Empty(), convert.FieldUsername, username)
	return convert.SetString(s, convert.FieldCode, code)
}

func otpCmd(a *app) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "otp <code>",
		Short: "Submit the one-time code of a pending login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.call(cmd, "", func(ctx context.Context, cl vaultpb.VaultClient) error {
				resp, err := cl.SubmitSecondFactor(ctx, otpRequest(username, args[0]))
				if err != nil {
					return err
				}
				return a.storeTokens(username, resp)
			})
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", "", "username")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func enable2FACmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "enable-2fa",
		Short: "Require a one-time code at login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.authed(cmd, func(ctx context.Context, cl vaultpb.VaultClient) error {
				if _, err := cl.EnableSecondFactor(ctx, convert.Empty()); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "second factor enabled")
				return nil
			})
		},
	}
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.authed(cmd, func(ctx context.Context, cl vaultpb.VaultClient) error {
				_, err := cl.Logout(ctx, convert.Empty())
				return err
			})
			if rmErr := removeToken(); rmErr != nil {
				return rmErr
			}
			if err != nil {
				fmt.Fprintf(a.errOut, "server logout: %v\n", describe(err))
			}
			fmt.Fprintln(a.out, "logged out")
			return nil
		},
	}
}

func uploadCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "upload <file|->",
		Short: "Upload a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				if args[0] == "-" {
					return errors.New("--name is required when reading stdin")
				}
				name = filepath.Base(args[0])
			}
			content, err := readAll(a.in, args[0])
			if err != nil {
				return err
			}
			return a.authed(cmd, func(ctx context.Context, cl vaultpb.VaultClient) error {
				resp, err := cl.Upload(ctx, convert.ToProtoUpload(name, content))
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "uploaded %s as file %s\n", name, convert.String(resp, convert.FieldFileID))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "stored filename (default: base name of the path)")
	return cmd
}

func readCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "read <id>",
		Short: "Download a file you own or that was shared with you",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseFileID(args[0])
			if err != nil {
				return err
			}
			return a.authed(cmd, func(ctx context.Context, cl vaultpb.VaultClient) error {
				resp, err := cl.Read(ctx, convert.SetFileID(convert.Empty(), id))
				if err != nil {
					return err
				}
				content, err := convert.Bytes(resp, convert.FieldContent)
				if err != nil {
					return err
				}
				if outPath != "" {
					return os.WriteFile(outPath, content, 0o600)
				}
				_, err = a.out.Write(content)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write content to file instead of stdout")
	return cmd
}

func shareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "share <id> <username>",
		Short: "Let another user read one of your files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseFileID(args[0])
			if err != nil {
				return err
			}
			return a.authed(cmd, func(ctx context.Context, cl vaultpb.VaultClient) error {
				req := convert.SetString(convert.SetFileID(convert.Empty(), id), convert.FieldTarget, args[1])
				if _, err := cl.Share(ctx, req); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "file %d shared with %s\n", id, args[1])
				return nil
			})
		},
	}
}

func metaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "meta <id>",
		Short: "Show file metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseFileID(args[0])
			if err != nil {
				return err
			}
			return a.authed(cmd, func(ctx context.Context, cl vaultpb.VaultClient) error {
				resp, err := cl.Metadata(ctx, convert.SetFileID(convert.Empty(), id))
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, convert.String(resp, convert.FieldMetadata))
				return nil
			})
		},
	}
}

// ---- utils ----

// readAll reads the file at p, or stdin when p is "-".
func readAll(stdin io.Reader, p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(p)
}

// describe turns a gRPC status into "Code: message"; other errors pass through.
func describe(err error) string {
	if st, ok := status.FromError(err); ok {
		return fmt.Sprintf("%s: %s", st.Code(), st.Message())
	}
	return err.Error()
}

// ---- main ----

func main() {
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := newRootCmd(a).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}
