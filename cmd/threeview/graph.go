package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [page]",
	Short: "Export the scene graph of a page",
	Long:  `Fetches a running page and outputs a Mermaid diagram (graph TD) of its object hierarchy.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		server, _ := cmd.Flags().GetString("server")
		pageID := "home"
		if len(args) > 0 {
			pageID = args[0]
		}

		output, err := fetchGraph(server, pageID)
		if err != nil {
			fmt.Printf("Error fetching graph: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(output)
	},
}

func fetchGraph(server, pageID string) (string, error) {
	endpoint := strings.TrimSuffix(server, "/") + "/pages/" + url.PathEscape(pageID) + "/graph"
	resp, err := http.Get(endpoint)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return string(body), nil
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("server", "s", "http://localhost:8080", "Server address")
}
