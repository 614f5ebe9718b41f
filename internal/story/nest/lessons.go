package nest

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"letternest/internal/api"
	"letternest/internal/cli/scheme/colours"
	"letternest/internal/domain/lesson"
	"letternest/internal/story/tts"
	"letternest/internal/ui/readalong"
)

func (ln *LetterNest) ListTopics(cmd *cobra.Command, args []string) error {
	letter, _ := cmd.Flags().GetString("letter")
	theme, _ := cmd.Flags().GetString("theme")
	offline, _ := cmd.Flags().GetBool("offline")

	lib, err := ln.library(offline)
	if err != nil {
		return err
	}

	fmt.Println()
	colours.Title.Println("🔤 Letter Lessons 🔤")
	fmt.Println()

	topics := lib.Filter(letter, theme)
	for _, t := range topics {
		fmt.Print("  ")
		colours.Letter.Printf(" %s ", strings.ToUpper(t.Letter))
		fmt.Print(" ")
		colours.Title.Printf("%s", t.Title)
		if t.Theme != "" {
			fmt.Print("  ")
			colours.Theme.Printf("(%s)", t.Theme)
		}
		fmt.Printf("  %s\n", describe(lesson.PresentationFor(t)))
		if t.Description != "" {
			fmt.Printf("     💡 %s\n", truncate(t.Description, 72))
		}
		colours.Info.Printf("     ID: %d\n", t.ID)
		fmt.Println()
	}

	if len(topics) == 0 {
		colours.Warning.Println("🔍 No lessons found matching your criteria.")
		if themes := lib.Themes(); len(themes) > 0 {
			colours.Info.Printf("💡 Themes: %s\n", strings.Join(themes, ", "))
		}
		return nil
	}
	colours.Success.Printf("✨ Found %d lessons! ✨\n", len(topics))
	return nil
}

func (ln *LetterNest) PlayTopic(cmd *cobra.Command, args []string) error {
	offline, _ := cmd.Flags().GetBool("offline")
	voice, _ := cmd.Flags().GetString("voice")

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("lesson id must be a number: %q", args[0])
	}
	lib, err := ln.library(offline)
	if err != nil {
		return err
	}
	topic, ok := lib.Find(id)
	if !ok {
		return fmt.Errorf("lesson %d not found", id)
	}

	var finished bool
	switch p := lesson.PresentationFor(topic).(type) {
	case lesson.Narrated:
		finished, err = ln.playNarrated(topic, p, voice)
	case lesson.EmbeddedVideo:
		finished = ln.watchVideo(topic, p.EmbedURL, p.Media)
	case lesson.UploadedVideo:
		finished = ln.watchVideo(topic, p.Source, p.Media)
	}
	if err != nil {
		return err
	}
	if finished {
		ln.recordCompletion(topic, len(lib.Topics))
	}
	return nil
}

func (ln *LetterNest) playNarrated(topic lesson.Topic, p lesson.Narrated, voice string) (bool, error) {
	controller, voices, err := ln.narration()
	if err != nil {
		return false, err
	}
	if voice != "" && !voices.Prefer(voice) {
		// picked up when the controller's voice refresh answers
		ln.log.WithField("voice", voice).Debug("voice not in the built-in list yet")
	}

	bridge := readalong.NewBridge()
	controller.SetListener(bridge)
	controller.Open(ln.ctx, p.Text)
	defer func() {
		bridge.Close()
		controller.Close()
		controller.SetListener(nil)
	}()

	restore := ln.redirectLogs()
	final, err := tea.NewProgram(readalong.New(topic, controller, voices, bridge)).Run()
	restore()
	if err != nil {
		return false, fmt.Errorf("read-along view: %w", err)
	}

	if voice != "" && !offered(voices.Voices(), voice) {
		colours.Warning.Printf("⚠️ Voice %q is not offered by %s, narrated with %s instead\n", voice, ln.backend.Name(), voices.Selected().ID)
	}

	m, ok := final.(readalong.Model)
	return ok && m.Finished(), nil
}

// watchVideo hands the video to the learner's browser and waits for them to
// come back.
func (ln *LetterNest) watchVideo(topic lesson.Topic, url string, media lesson.Media) bool {
	fmt.Println()
	colours.Title.Printf("🎬 %s\n", topic.Title)
	if media.Duration != nil {
		colours.Info.Printf("⏱️  About %d seconds\n", *media.Duration)
	}
	fmt.Printf("🔗 Open this video: %s\n", url)
	if !media.AllowControls {
		colours.Info.Println("💡 Player controls are hidden for this lesson.")
	}
	fmt.Println()

	colours.Prompt.Print("🎧 Press Enter when the video is over (or 'q' to stop): ")
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input != "q" && input != "quit"
}

// recordCompletion counts a finished lesson locally and, when logged in,
// reports it to the backend.
func (ln *LetterNest) recordCompletion(topic lesson.Topic, total int) {
	n, err := ln.state.RecordCompletion(ln.ctx, total)
	if err != nil {
		ln.log.WithError(err).Warn("failed to record completion")
		return
	}
	stars := lesson.Stars(n)

	fmt.Println()
	colours.Success.Println("🎉 Great job! You finished the lesson! 🎉")
	colours.Star.Println(starRow(stars))
	colours.Info.Printf("You've completed %d adventure%s\n", n, plural(n))

	if !ln.client.Session().LoggedIn() {
		return
	}
	_, err = ln.client.UpdateProgress(ln.ctx, api.ProgressUpdate{
		TopicID:     topic.ID,
		StarsEarned: stars,
		Completed:   true,
	})
	if err != nil {
		colours.Warning.Printf("⚠️ Progress saved on this computer only: %v\n", ln.explain(err))
	}
}

func (ln *LetterNest) ListVoices(cmd *cobra.Command, args []string) error {
	_, voices, err := ln.narration()
	if err != nil {
		return err
	}
	voices.Refresh(ln.ctx)

	fmt.Println()
	colours.Title.Printf("🎤 Narrator Voices (%s) 🎤\n", ln.backend.Name())
	fmt.Println()
	selected := voices.Selected().ID
	for _, v := range voices.Voices() {
		marker := "  "
		if v.ID == selected {
			marker = "👉"
		}
		fmt.Printf("  %s ", marker)
		colours.Title.Printf("%s", v.Label)
		colours.Info.Printf("  (%s)\n", v.ID)
	}
	fmt.Println()
	var engines []string
	for _, e := range tts.AvailableEngines(ln.ttsConfig()) {
		engines = append(engines, e.String())
	}
	colours.Info.Printf("🔧 Engines on this computer: %s\n", strings.Join(engines, ", "))
	colours.Info.Println("💡 Pick one with 'letternest play <id> --voice <voice-id>' or press 'v' while listening")
	return nil
}

func (ln *LetterNest) ShowProgress(cmd *cobra.Command, args []string) error {
	fmt.Println()
	colours.Title.Println("⭐ Your Progress ⭐")
	fmt.Println()
	ln.printStars()

	if !ln.client.Session().LoggedIn() {
		colours.Info.Println("💡 Log in with 'letternest admin login' to see saved lesson progress")
		return nil
	}

	records, err := ln.client.ListProgress(ln.ctx)
	if err != nil {
		return ln.explain(err)
	}
	if len(records) == 0 {
		colours.Warning.Println("No lesson progress saved yet.")
		return nil
	}
	for _, p := range records {
		status := "in progress"
		if p.Completed {
			status = "done"
		}
		fmt.Print("  ")
		colours.Letter.Printf(" %s ", strings.ToUpper(p.Topic.Letter))
		fmt.Print(" ")
		colours.Title.Printf("%s", p.Topic.Title)
		fmt.Printf("  %s  %s\n", colours.Star.Sprint(starRow(p.StarsEarned)), status)
	}
	return nil
}

func (ln *LetterNest) printStars() {
	n, err := ln.state.Completed(ln.ctx)
	if err != nil {
		ln.log.WithError(err).Warn("failed to read completions")
		return
	}
	if n == 0 {
		return
	}
	colours.Star.Println(starRow(lesson.Stars(n)))
	colours.Info.Printf("You've completed %d adventure%s\n\n", n, plural(n))
}

func offered(list []tts.Voice, id string) bool {
	for _, v := range list {
		if v.ID == id {
			return true
		}
	}
	return false
}

func describe(p lesson.Presentation) string {
	switch p.(type) {
	case lesson.EmbeddedVideo:
		return "📺 video"
	case lesson.UploadedVideo:
		return "🎞️ movie"
	default:
		return "📖 story"
	}
}

func starRow(stars int) string {
	if stars < 0 {
		stars = 0
	}
	if stars > lesson.MaxStars {
		stars = lesson.MaxStars
	}
	return strings.Repeat("★", stars) + strings.Repeat("☆", lesson.MaxStars-stars)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-3])) + "..."
}
