package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

// get fetches path from the API and returns the status and raw body.
func get(cmd *cobra.Command, opts *options, path string) (int, []byte, error) {
	client := &http.Client{Timeout: opts.timeout}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, strings.TrimRight(opts.baseURL, "/")+path, nil)
	if err != nil {
		return 0, nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// printJSON re-indents body onto w.
func printJSON(w io.Writer, body []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

// fetchAndPrint prints the body of path. okStatuses lists statuses that
// are not failures.
func fetchAndPrint(cmd *cobra.Command, opts *options, path string, okStatuses ...int) error {
	status, body, err := get(cmd, opts, path)
	if err != nil {
		return err
	}

	ok := status == http.StatusOK
	for _, s := range okStatuses {
		ok = ok || status == s
	}
	if !ok {
		return fmt.Errorf("request failed (status %d): %s", status, truncate(strings.TrimSpace(string(body)), 200))
	}

	return printJSON(cmd.OutOrStdout(), body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check that total debits equal total credits",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := get(cmd, opts, "/api/v1/ledger/consistency")
			if err != nil {
				return err
			}

			var result struct {
				Consistent   bool   `json:"consistent"`
				TotalDebits  string `json:"total_debits"`
				TotalCredits string `json:"total_credits"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("consistency check FAILED (status %d): %s", status, truncate(string(body), 200))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Debits:  %s\nCredits: %s\n", result.TotalDebits, result.TotalCredits)
			if !result.Consistent {
				return fmt.Errorf("consistency check FAILED")
			}
			fmt.Fprintln(out, "Consistency check PASSED")
			return nil
		},
	}

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare running balances with entry sums",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := get(cmd, opts, "/api/v1/ledger/reconciliation")
			if err != nil {
				return err
			}
			if status != http.StatusOK && status != http.StatusConflict {
				return fmt.Errorf("request failed (status %d): %s", status, truncate(string(body), 200))
			}
			if err := printJSON(cmd.OutOrStdout(), body); err != nil {
				return err
			}
			if status == http.StatusConflict {
				return fmt.Errorf("reconciliation found discrepancies")
			}
			return nil
		},
	}

	cmd.AddCommand(consistencyCmd, reconcileCmd)
	return cmd
}

func balanceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account-code>",
		Short: "Show the balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchAndPrint(cmd, opts, "/api/v1/accounts/"+args[0]+"/balance")
		},
	}
}

func fundCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Restricted prize fund",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show balance, reservations and availability of the prize fund",
			RunE: func(cmd *cobra.Command, args []string) error {
				return fetchAndPrint(cmd, opts, "/api/v1/fund/status")
			},
		},
		&cobra.Command{
			Use:   "reservations",
			Short: "List active draw reservations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return fetchAndPrint(cmd, opts, "/api/v1/draws/")
			},
		},
	)
	return cmd
}
