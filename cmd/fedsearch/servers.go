package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"fedsearch/internal/backends"
)

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "List configured servers and their resolved engines",
	Run:   runServers,
}

func init() {
	rootCmd.AddCommand(serversCmd)
}

func runServers(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()

	names := make([]string, 0, len(cfg.Servers))
	for name := range cfg.Servers {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Println("No servers configured.")
		return
	}

	type serverInfo struct {
		Name       string   `json:"name"`
		Engine     string   `json:"engine"`
		Program    string   `json:"program,omitempty"`
		RawQueries bool     `json:"rawQueries"`
		Error      string   `json:"error,omitempty"`
		Default    []string `json:"collections,omitempty"`
	}

	infos := make([]serverInfo, 0, len(names))
	for _, name := range names {
		info := serverInfo{Name: name}
		desc, err := backends.ResolveDescriptor(cfg, name)
		if err != nil {
			info.Error = err.Error()
		} else {
			info.Engine = string(desc.Engine)
			info.Program = desc.Program
			info.RawQueries = desc.RawQueries
			info.Default = desc.Collections
		}
		infos = append(infos, info)
	}

	if outputFormat == "json" {
		if err := printJSON(infos); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding response: %v\n", err)
			os.Exit(1)
		}
		return
	}
	for _, info := range infos {
		if info.Error != "" {
			fmt.Printf("%-16s (unusable: %s)\n", info.Name, info.Error)
			continue
		}
		raw := ""
		if info.RawQueries {
			raw = " [raw-queries]"
		}
		fmt.Printf("%-16s engine=%s program=%s%s\n", info.Name, info.Engine, info.Program, raw)
	}
}
