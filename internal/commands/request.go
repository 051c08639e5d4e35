package commands

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaborage/pooledhttp/client"
	"github.com/gaborage/pooledhttp/transport"
)

// PostOptions holds options for the post command
type PostOptions struct {
	Fields    []string
	Data      string
	Multipart bool
}

// newVerbCommand creates a bodiless request command: get, head or delete.
func newVerbCommand(opts *GlobalOptions, verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:     verb + " URL",
		Short:   short,
		Args:    cobra.ExactArgs(1),
		Example: fmt.Sprintf(`  pooledhttp %s https://example.com/resource -H "Accept: application/json"`, verb),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := commandContext(cmd)
			var resp *client.Response
			switch verb {
			case "head":
				resp, err = s.client.Head(ctx, args[0], s.headers)
			case "delete":
				resp, err = s.client.Delete(ctx, args[0], s.headers)
			default:
				resp, err = s.client.Get(ctx, args[0], s.headers)
			}
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
}

// NewPostCommand creates the post command
func NewPostCommand(opts *GlobalOptions) *cobra.Command {
	postOpts := &PostOptions{}

	cmd := &cobra.Command{
		Use:   "post URL",
		Short: "Send a form POST request",
		Long: `Send a POST request. Fields given with --field are form encoded, or sent
as multipart/form-data with --multipart. --data sends a raw body instead;
prefix it with @ to read the body from a file.`,
		Example: `  # Form fields
  pooledhttp post https://example.com/form --field name=ada --field lang=go

  # Raw JSON body
  pooledhttp post https://example.com/api -H "Content-Type: application/json" --data '{"x":27}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := postData(postOpts)
			if err != nil {
				return err
			}

			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			var resp *client.Response
			if postOpts.Multipart {
				resp, err = s.client.MultipartFormPost(commandContext(cmd), args[0], data, s.headers)
			} else {
				resp, err = s.client.Post(commandContext(cmd), args[0], data, s.headers)
			}
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringArrayVarP(&postOpts.Fields, "field", "F", nil, "Form field name=value (repeatable)")
	cmd.Flags().StringVarP(&postOpts.Data, "data", "d", "", "Raw request body, or @file")
	cmd.Flags().BoolVar(&postOpts.Multipart, "multipart", false, "Send fields as multipart/form-data")
	cmd.MarkFlagsMutuallyExclusive("field", "data")

	return cmd
}

// NewPutCommand creates the put command
func NewPutCommand(opts *GlobalOptions) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:     "put URL",
		Short:   "Send a PUT request with a raw body",
		Example: `  pooledhttp put https://example.com/doc/1 --data @doc.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readData(data)
			if err != nil {
				return err
			}

			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			resp, err := s.client.Put(commandContext(cmd), args[0], body, s.headers)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "Raw request body, or @file")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

// postData returns the fields in flag order, the raw body, or nil.
func postData(opts *PostOptions) (any, error) {
	if len(opts.Fields) > 0 {
		fields := make([]transport.Field, 0, len(opts.Fields))
		for _, f := range opts.Fields {
			name, value, ok := strings.Cut(f, "=")
			if !ok || name == "" {
				return nil, fmt.Errorf("invalid field %q: expected name=value", f)
			}
			fields = append(fields, transport.Field{Name: name, Content: value})
		}
		return fields, nil
	}
	if opts.Data != "" {
		return readData(opts.Data)
	}
	return nil, nil
}

// readData returns data as bytes, or the contents of the named file for "@file".
func readData(data string) ([]byte, error) {
	if path, ok := strings.CutPrefix(data, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read body file: %w", err)
		}
		return b, nil
	}
	return []byte(data), nil
}

// printResponse writes the status line, the parsed headers sorted by name, a
// blank line and the body.
func printResponse(w io.Writer, resp *client.Response) error {
	statusLine, _, _ := strings.Cut(resp.HeaderBlock(), "\r\n")
	if statusLine == "" {
		statusLine = fmt.Sprintf("HTTP %d", resp.Status())
	}
	if _, err := fmt.Fprintln(w, statusLine); err != nil {
		return err
	}

	headers := resp.Headers()
	for _, name := range slices.Sorted(maps.Keys(headers)) {
		if _, err := fmt.Fprintf(w, "%s: %s\n", name, headers[name]); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	_, err := w.Write(resp.Body())
	return err
}
