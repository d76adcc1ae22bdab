package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	emitAddr string
	emitData string
)

var emitCmd = &cobra.Command{
	Use:   "emit <event-type>",
	Short: "Emit an event to a running automesh daemon",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data := map[string]any{}
		if emitData != "" {
			if err := json.Unmarshal([]byte(emitData), &data); err != nil {
				return fmt.Errorf("invalid --data payload: %w", err)
			}
		}

		body, err := json.Marshal(map[string]any{
			"type": args[0],
			"data": data,
		})
		if err != nil {
			return err
		}

		client := &http.Client{Timeout: 10 * time.Second}

		resp, err := client.Post(emitAddr+"/api/v1/events", "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("emit event: %w", err)
		}
		defer resp.Body.Close()

		out, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 300 {
			return fmt.Errorf("emit event: status %d: %s", resp.StatusCode, bytes.TrimSpace(out))
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(bytes.TrimSpace(out)))

		return nil
	},
}

func init() {
	emitCmd.Flags().StringVar(&emitAddr, "addr", "http://localhost:8080", "base URL of the automesh daemon")
	emitCmd.Flags().StringVar(&emitData, "data", "", "event payload as a JSON object")
}
