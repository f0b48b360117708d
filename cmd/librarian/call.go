package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aoideee/libraryhub/internal/mockapi"
)

func newCallCmd(s *session) *cobra.Command {
	var (
		body  string
		query []string
	)

	cmd := &cobra.Command{
		Use:   "call METHOD PATH",
		Short: "Send a REST-shaped request through the in-process dispatcher",
		Long: `Dispatch a request exactly as the API surface would see it and print
the JSON payload. Errors are reported inside the payload, never as a failed
command.

Examples:
  librarian call GET /api/books
  librarian call POST /api/books --data '{"title": "Dune"}'
  librarian call GET /api/borrowers --query category=primary
  librarian call GET /api/dashboard/popular-books?limit=3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			for _, kv := range query {
				k, v, found := strings.Cut(kv, "=")
				if !found {
					return fmt.Errorf("query %q must be key=value", kv)
				}
				q.Add(k, v)
			}

			req := mockapi.Request{Method: args[0], Path: args[1], Query: q}
			if body != "" {
				if !json.Valid([]byte(body)) {
					return fmt.Errorf("--data is not valid JSON")
				}
				req.Body = json.RawMessage(body)
			}

			d := mockapi.New(s.models, s.logger)
			resp := d.Dispatch(cmd.Context(), req)

			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&body, "data", "d", "", "JSON request body")
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "Query parameter key=value (repeatable)")
	return cmd
}
