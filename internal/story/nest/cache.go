package nest

import (
	"fmt"

	"github.com/spf13/cobra"

	"letternest/internal/cli/scheme/colours"
)

func (ln *LetterNest) RefreshTopicCache(cmd *cobra.Command, args []string) error {
	colours.Info.Println("🔄 Fetching fresh lessons...")
	lib, err := ln.topics.Refresh(ln.ctx)
	if err != nil {
		return fmt.Errorf("refresh lessons: %w", err)
	}
	colours.Success.Printf("✅ Cached %d lessons from %s\n", len(lib.Topics), lib.URL)
	return nil
}

func (ln *LetterNest) ShowCacheStatus(cmd *cobra.Command, args []string) error {
	colours.Title.Println("📊 Lesson Cache Status")

	info := ln.topics.Info()
	if !info.Exists {
		colours.Warning.Println("❌ Cache does not exist")
		colours.Info.Println("💡 Run 'letternest cache refresh' to create cache")
		return nil
	}

	colours.Success.Println("✅ Cache exists")
	colours.Info.Printf("📁 Location: %s\n", info.Path)
	colours.Info.Printf("📏 Size: %d bytes\n", info.Size)
	colours.Info.Printf("🕐 Last modified: %s\n", info.LastModified.Format("2006-01-02 15:04:05"))
	if info.Fresh {
		colours.Success.Println("🔄 Cache is fresh")
	} else {
		colours.Warning.Println("⏰ Cache is stale")
	}
	colours.Info.Printf("⏳ Max age: %s\n", info.MaxAge)
	return nil
}

func (ln *LetterNest) ClearTopicCache(cmd *cobra.Command, args []string) error {
	if err := ln.topics.ClearCache(); err != nil {
		return err
	}
	colours.Success.Println("🧹 Lesson cache cleared")
	return nil
}

func (ln *LetterNest) AddCacheCommands(rootCmd *cobra.Command) {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "🗂️ Manage the offline lesson list",
		Long:  "Inspect, refresh or clear the local copy of the lesson list",
	}

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "🔄 Refresh lesson cache",
		Long:  "Download the lesson list from the LetterNest backend",
		RunE:  ln.RefreshTopicCache,
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "📊 Show cache status",
		Long:  "Display information about the local lesson cache",
		RunE:  ln.ShowCacheStatus,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "🧹 Clear lesson cache",
		Long:  "Remove the local lesson cache so the next listing fetches fresh data",
		RunE:  ln.ClearTopicCache,
	}

	cacheCmd.AddCommand(refreshCmd, statusCmd, clearCmd)
	rootCmd.AddCommand(cacheCmd)
}
