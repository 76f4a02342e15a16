package main

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/sir_venger/ingest_lite/pkg/ingestclient"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	server string
	token  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "ingestctl",
		Short:         "Client for the content ingest service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&opts.server, "server", "s", envOr("INGEST_SERVER", "http://localhost:8080"), "ingest service base URL")
	cmd.PersistentFlags().StringVarP(&opts.token, "token", "t", os.Getenv("INGEST_TOKEN"), "session token")

	cmd.AddCommand(newUploadCmd(opts), newDetailCmd(opts), newRetrieveCmd(opts))
	return cmd
}

func newUploadCmd(opts *rootOptions) *cobra.Command {
	var (
		fields   []string
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload one or more files in a single multipart request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ingestclient.UploadRequest{Fields: map[string]string{}}
			for _, kv := range fields {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || k == "" {
					return fmt.Errorf("field %q must look like key=value", kv)
				}
				req.Fields[k] = v
			}

			for i, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()

				info, err := f.Stat()
				if err != nil {
					return err
				}

				req.Files = append(req.Files, ingestclient.File{
					Key:       fmt.Sprintf("file%d", i+1),
					Name:      filepath.Base(path),
					MediaType: mime.TypeByExtension(filepath.Ext(path)),
					Reader:    f,
					Size:      info.Size(),
				})
			}

			var clientOpts []ingestclient.Option
			if progress {
				clientOpts = append(clientOpts, ingestclient.WithProgress(cmd.ErrOrStderr()))
			}
			c := ingestclient.New(opts.server, opts.token, clientOpts...)

			res, err := c.Upload(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "extra form field key=value (repeatable)")
	cmd.Flags().BoolVar(&progress, "progress", true, "show upload progress on stderr")

	return cmd
}

func newDetailCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detail HASH",
		Short: "Show what the service knows about a content hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ingestclient.New(opts.server, opts.token).Detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newRetrieveCmd(opts *rootOptions) *cobra.Command {
	var ext string

	cmd := &cobra.Command{
		Use:   "retrieve URL",
		Short: "Ask the service to download a URL and hash it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ingestclient.New(opts.server, opts.token).Retrieve(cmd.Context(), args[0], ext)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&ext, "extension", "", "extension to report back (default bin)")

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
