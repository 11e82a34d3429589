package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"OpenMCP-Wallet/internal/mcpserver"
	"OpenMCP-Wallet/pkg/logger"
)

// version 在构建时通过 -ldflags "-X main.version=..." 注入。
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "solwalletd",
	Short:         "Solana wallet tools over the Model Context Protocol",
	Long:          "solwalletd serves Solana wallet operations as MCP tools over stdio. Logs go to stderr.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          serve,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the wallet tools over stdio (default)",
	RunE:  serve,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tool catalogue as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(mcpserver.Catalogue())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the JSON config file (env SOLWALLET_CONFIG)")
	rootCmd.AddCommand(serveCmd, toolsCmd, versionCmd)
}

// main 是 solwalletd 守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.L().Error("solwalletd 运行失败", "error", err)
		stop()
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		path = os.Getenv("SOLWALLET_CONFIG")
	}
	return run(cmd.Context(), path)
}
