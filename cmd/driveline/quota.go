package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show storage usage",
	RunE:  runQuota,
}

func init() {
	rootCmd.AddCommand(quotaCmd)
}

func runQuota(cmd *cobra.Command, args []string) error {
	quota, err := apiClient.Drive.Quota(context.Background())
	if err != nil {
		return err
	}

	percent := quota.UsagePercent()

	barColor := color.New(color.FgGreen)
	if percent >= 90 {
		barColor = color.New(color.FgRed)
	} else if percent >= 70 {
		barColor = color.New(color.FgYellow)
	}

	const width = 40
	filled := int(percent / 100 * width)
	if filled > width {
		filled = width
	}

	bar := barColor.Sprint(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)

	fmt.Printf("[%s] %.1f%%\n", bar, percent)
	fmt.Printf("Used %s of %s (%s free)\n",
		formatBytes(quota.UsedSpaceBytes),
		formatBytes(quota.TotalSpaceBytes),
		formatBytes(quota.FreeBytes()))
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
