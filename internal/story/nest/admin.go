package nest

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"letternest/internal/api"
	"letternest/internal/cli/scheme/colours"
	"letternest/internal/domain/lesson"
)

func (ln *LetterNest) Login(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	reader := bufio.NewReader(os.Stdin)
	if username == "" {
		username = prompt(reader, "👤 Username: ")
	}
	if password == "" {
		password = promptSecret(reader, os.Stdin, "🔑 Password: ")
	}
	if username == "" || password == "" {
		return errors.New("username and password are required")
	}

	if err := ln.client.Login(ln.ctx, username, password); err != nil {
		if api.IsStatus(err, http.StatusUnauthorized) {
			return errors.New("login failed: wrong username or password")
		}
		return err
	}
	colours.Success.Printf("✅ Logged in as %s\n", username)
	return nil
}

func (ln *LetterNest) Logout(cmd *cobra.Command, args []string) error {
	if err := ln.client.Logout(ln.ctx); err != nil {
		return err
	}
	colours.Success.Println("👋 Logged out")
	return nil
}

func (ln *LetterNest) CreateTopic(cmd *cobra.Command, args []string) error {
	in, err := topicInputFromFlags(cmd)
	if err != nil {
		return err
	}
	if in.Title == nil || in.Letter == nil {
		return errors.New("--title and --letter are required")
	}
	if in.IsActive == nil {
		in.IsActive = api.Bool(true)
	}

	topic, err := ln.client.CreateTopic(ln.ctx, in)
	if err != nil {
		return ln.explain(err)
	}
	colours.Success.Printf("✅ Created lesson %d: %s\n", topic.ID, topic.Title)
	ln.refreshAfterWrite()
	return nil
}

func (ln *LetterNest) UpdateTopic(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	in, err := topicInputFromFlags(cmd)
	if err != nil {
		return err
	}
	if in == (api.TopicInput{}) {
		return errors.New("nothing to update: pass at least one field flag")
	}

	topic, err := ln.client.UpdateTopic(ln.ctx, id, in)
	if err != nil {
		return ln.explain(err)
	}
	colours.Success.Printf("✅ Updated lesson %d: %s\n", topic.ID, topic.Title)
	ln.refreshAfterWrite()
	return nil
}

func (ln *LetterNest) DeleteTopic(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := ln.client.DeleteTopic(ln.ctx, id); err != nil {
		return ln.explain(err)
	}
	colours.Success.Printf("🗑️ Deleted lesson %d\n", id)
	ln.refreshAfterWrite()
	return nil
}

func (ln *LetterNest) AttachMedia(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	in, err := mediaInputFromFlags(cmd)
	if err != nil {
		return err
	}
	in.Topic = api.Int(id)
	if in.Kind == nil {
		return errors.New("--type is required")
	}
	if *in.Kind != lesson.MediaStory && in.URL == nil && in.File == nil {
		return errors.New("--url or --file is required for video media")
	}

	media, err := ln.client.CreateMedia(ln.ctx, in)
	if err != nil {
		return ln.explain(err)
	}
	colours.Success.Printf("✅ Attached %s media %d to lesson %d\n", media.Kind, media.ID, id)
	ln.refreshAfterWrite()
	return nil
}

func (ln *LetterNest) UpdateMedia(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	in, err := mediaInputFromFlags(cmd)
	if err != nil {
		return err
	}
	if in == (api.MediaInput{}) {
		return errors.New("nothing to update: pass at least one field flag")
	}

	media, err := ln.client.UpdateMedia(ln.ctx, id, in)
	if err != nil {
		return ln.explain(err)
	}
	colours.Success.Printf("✅ Updated media %d\n", media.ID)
	ln.refreshAfterWrite()
	return nil
}

// refreshAfterWrite keeps the offline lesson list in step with admin edits.
func (ln *LetterNest) refreshAfterWrite() {
	if _, err := ln.topics.Refresh(ln.ctx); err != nil {
		ln.log.WithError(err).Warn("failed to refresh lesson cache after write")
	}
}

func addTopicFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Lesson title")
	cmd.Flags().String("letter", "", "Letter the lesson teaches")
	cmd.Flags().String("theme", "", "Lesson theme")
	cmd.Flags().String("description", "", "Text narrated to the learner")
	cmd.Flags().Bool("active", true, "Show the lesson to learners")
	cmd.Flags().String("thumbnail", "", "Path to a thumbnail image")
}

func addMediaFlags(cmd *cobra.Command) {
	cmd.Flags().String("type", "", "Media type: youtube, mp4 or story")
	cmd.Flags().String("url", "", "Media URL")
	cmd.Flags().String("file", "", "Path to an mp4 to upload")
	cmd.Flags().Bool("autoplay", false, "Start the video automatically")
	cmd.Flags().Bool("controls", true, "Show player controls")
	cmd.Flags().Int("duration", 0, "Video length in seconds")
}

// topicInputFromFlags copies only the flags the user set, so an update
// leaves the other fields alone.
func topicInputFromFlags(cmd *cobra.Command) (api.TopicInput, error) {
	var in api.TopicInput
	flags := cmd.Flags()

	in.Title = changedString(cmd, "title")
	in.Theme = changedString(cmd, "theme")
	in.Description = changedString(cmd, "description")
	if letter := changedString(cmd, "letter"); letter != nil {
		l := strings.ToUpper(strings.TrimSpace(*letter))
		if len([]rune(l)) != 1 {
			return in, fmt.Errorf("--letter must be a single letter, got %q", *letter)
		}
		in.Letter = &l
	}
	if flags.Changed("active") {
		v, _ := flags.GetBool("active")
		in.IsActive = &v
	}
	if path := changedString(cmd, "thumbnail"); path != nil {
		up, err := readUpload(*path)
		if err != nil {
			return in, err
		}
		in.Thumbnail = up
	}
	return in, nil
}

func mediaInputFromFlags(cmd *cobra.Command) (api.MediaInput, error) {
	var in api.MediaInput
	flags := cmd.Flags()

	if kind := changedString(cmd, "type"); kind != nil {
		k := lesson.MediaKind(strings.ToLower(*kind))
		if !k.Valid() {
			return in, fmt.Errorf("unknown media type %q (want youtube, mp4 or story)", *kind)
		}
		in.Kind = &k
	}
	in.URL = changedString(cmd, "url")
	if path := changedString(cmd, "file"); path != nil {
		up, err := readUpload(*path)
		if err != nil {
			return in, err
		}
		in.File = up
	}
	if flags.Changed("autoplay") {
		v, _ := flags.GetBool("autoplay")
		in.Autoplay = &v
	}
	if flags.Changed("controls") {
		v, _ := flags.GetBool("controls")
		in.AllowControls = &v
	}
	if flags.Changed("duration") {
		v, _ := flags.GetInt("duration")
		if v < 0 {
			return in, errors.New("--duration cannot be negative")
		}
		in.Duration = &v
	}
	return in, nil
}

func changedString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func readUpload(path string) (*api.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &api.Upload{Filename: filepath.Base(path), Data: data}, nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id must be a positive number: %q", s)
	}
	return id, nil
}

// promptSecret reads without echo when in is a terminal, otherwise it reads
// a line from reader.
func promptSecret(reader *bufio.Reader, in *os.File, label string) string {
	fd := in.Fd()
	if !term.IsTerminal(fd) {
		return prompt(reader, label)
	}
	colours.Prompt.Print(label)
	secret, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(secret))
}

func prompt(reader *bufio.Reader, label string) string {
	colours.Prompt.Print(label)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func (ln *LetterNest) AddAdminCommands(rootCmd *cobra.Command) {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "🛠️ Manage lessons",
		Long:  "Log in to the LetterNest backend and create, edit or delete lessons",
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "🔑 Log in",
		Long:  "Sign in to the LetterNest backend. Missing credentials are prompted for",
		Args:  cobra.NoArgs,
		RunE:  ln.Login,
	}
	loginCmd.Flags().StringP("username", "u", "", "Username")
	loginCmd.Flags().StringP("password", "p", "", "Password")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "👋 Log out",
		Long:  "Forget the saved login on this computer",
		Args:  cobra.NoArgs,
		RunE:  ln.Logout,
	}

	topicCmd := &cobra.Command{
		Use:   "topic",
		Short: "🔤 Manage lessons",
	}
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "➕ Create a lesson",
		Args:  cobra.NoArgs,
		RunE:  ln.CreateTopic,
	}
	addTopicFlags(createCmd)
	updateCmd := &cobra.Command{
		Use:   "update [lesson-id]",
		Short: "✏️ Update a lesson",
		Long:  "Change only the fields passed as flags",
		Args:  cobra.ExactArgs(1),
		RunE:  ln.UpdateTopic,
	}
	addTopicFlags(updateCmd)
	deleteCmd := &cobra.Command{
		Use:   "delete [lesson-id]",
		Short: "🗑️ Delete a lesson",
		Args:  cobra.ExactArgs(1),
		RunE:  ln.DeleteTopic,
	}
	topicCmd.AddCommand(createCmd, updateCmd, deleteCmd)

	mediaCmd := &cobra.Command{
		Use:   "media",
		Short: "🎬 Manage lesson media",
	}
	attachCmd := &cobra.Command{
		Use:   "attach [lesson-id]",
		Short: "📎 Attach media to a lesson",
		Args:  cobra.ExactArgs(1),
		RunE:  ln.AttachMedia,
	}
	addMediaFlags(attachCmd)
	mediaUpdateCmd := &cobra.Command{
		Use:   "update [media-id]",
		Short: "✏️ Update media",
		Args:  cobra.ExactArgs(1),
		RunE:  ln.UpdateMedia,
	}
	addMediaFlags(mediaUpdateCmd)
	mediaCmd.AddCommand(attachCmd, mediaUpdateCmd)

	adminCmd.AddCommand(loginCmd, logoutCmd, topicCmd, mediaCmd)
	rootCmd.AddCommand(adminCmd)
}
