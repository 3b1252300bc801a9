package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/marketing/internal/domain"
)

var (
	campaignClientID string
	campaignMessage  string
	campaignChannels []string
	campaignSources  []string
	campaignExecute  bool
)

// campaignCmd generates a campaign via the REST API
var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Generate a campaign",
	Long: `Generate a campaign from a free-text request and print it as JSON.

With --execute the generated campaign is dispatched right away.`,
	RunE: runCampaign,
}

func init() {
	campaignCmd.Flags().StringVar(&campaignClientID, "client", "cli", "Client id")
	campaignCmd.Flags().StringVarP(&campaignMessage, "message", "m", "", "Campaign request text")
	campaignCmd.Flags().StringSliceVar(&campaignChannels, "channel", []string{domain.ChannelEmail}, "Delivery channel (repeatable)")
	campaignCmd.Flags().StringSliceVar(&campaignSources, "source", nil, "Data source id (repeatable)")
	campaignCmd.Flags().BoolVar(&campaignExecute, "execute", false, "Execute the campaign after generating it")
	campaignCmd.MarkFlagRequired("message")
}

func runCampaign(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 60 * time.Second}
	base := "http://" + serverAddr

	var generated struct {
		Success  bool            `json:"success"`
		Error    string          `json:"error"`
		Campaign domain.Campaign `json:"campaign"`
	}
	err := postJSON(client, base+"/api/campaigns/generate", map[string]any{
		"message":      campaignMessage,
		"data_sources": campaignSources,
		"channels":     campaignChannels,
		"client_id":    campaignClientID,
	}, &generated)
	if err != nil {
		return err
	}
	if !generated.Success {
		return fmt.Errorf("generate failed: %s", generated.Error)
	}
	printJSON(cmd, generated.Campaign)

	if !campaignExecute {
		return nil
	}

	var executed struct {
		Success   bool                   `json:"success"`
		Error     string                 `json:"error"`
		Execution domain.ExecutionRecord `json:"execution"`
	}
	if err := postJSON(client, base+"/api/campaigns/execute/"+generated.Campaign.CampaignID, map[string]any{}, &executed); err != nil {
		return err
	}
	if !executed.Success {
		return fmt.Errorf("execute failed: %s", executed.Error)
	}
	printJSON(cmd, executed.Execution)
	return nil
}

func postJSON(client *http.Client, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) {
	formatted, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(formatted))
}
