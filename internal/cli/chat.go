package cli

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/uniassist/internal/client"
	"github.com/raphaelgruber/uniassist/internal/models"
	"github.com/spf13/cobra"
)

var (
	chatServer string
	chatEmail  string
	chatHTTP   bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the admission assistant of a running student site",
	Long: `Open an interactive chat with the admission assistant of a running
student site. Messages go over the site's WebSocket endpoint (/chat/ws),
or over POST /chat with --http.

With --email you are logged in first (the password is prompted for) and the
conversation is kept in your history; otherwise you chat as a guest.

Examples:
  uniassist chat
  uniassist chat --server http://portal.example.edu:5000 --email rahim@example.com`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatServer, "server", "", "student site URL (default: UNIASSIST_SERVER_URL or http://localhost:5000)")
	chatCmd.Flags().StringVar(&chatEmail, "email", "", "log in as this student before chatting")
	chatCmd.Flags().BoolVar(&chatHTTP, "http", false, "send messages with POST /chat instead of WebSocket")
}

// sendFunc delivers one message and returns the reply.
type sendFunc func(ctx context.Context, message string) (*client.Reply, error)

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c := client.New(chatServer)
	if err := c.Health(ctx); err != nil {
		return fmt.Errorf("student site unreachable: %w", err)
	}

	if chatEmail != "" {
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}
		if err := c.Login(ctx, chatEmail, password); err != nil {
			return err
		}
	}

	send := sendFunc(c.Send)
	if !chatHTTP {
		conn, err := c.Dial(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		send = conn.Send
	}

	who := "guest"
	if chatEmail != "" {
		who = chatEmail
	}
	if _, err := tea.NewProgram(newChatModel(send, who)).Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}

// replyMsg carries the outcome of one send.
type replyMsg struct {
	reply *client.Reply
	err   error
}

// chatModel is the bubbletea model for the interactive chat.
type chatModel struct {
	send    sendFunc
	who     string
	input   textinput.Model
	lines   []string
	waiting bool
	theme   Theme
}

func newChatModel(send sendFunc, who string) chatModel {
	input := textinput.New()
	input.Placeholder = "Ask about admission, tuition, deadlines..."
	input.Prompt = "> "
	input.CharLimit = 2000
	_ = input.Focus()

	return chatModel{send: send, who: who, input: input, theme: defaultTheme}
}

// Init returns no initial command.
func (m chatModel) Init() tea.Cmd {
	return nil
}

// Update handles key presses and replies.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.waiting {
				return m, nil
			}
			m.lines = append(m.lines, m.turnLine(models.UserTurn(text)))
			m.input.Reset()
			m.waiting = true
			return m, m.ask(text)
		}

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.lines = append(m.lines, m.theme.errorStyle().Render("Error: "+msg.err.Error()))
			return m, nil
		}
		m.lines = append(m.lines, m.turnLine(models.AssistantTurn(msg.reply.Reply)))
		if msg.reply.Warning != "" {
			m.lines = append(m.lines, m.theme.hintStyle().Render("Warning: "+msg.reply.Warning))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the conversation and the input line.
func (m chatModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m chatModel) renderContent() string {
	var b strings.Builder
	b.WriteString(m.theme.titleStyle().Render("UniAssist admission assistant"))
	b.WriteString(m.theme.hintStyle().Render(" (" + m.who + ")"))
	b.WriteString("\n\n")
	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteString("\n\n")
	}
	if m.waiting {
		b.WriteString(m.theme.hintStyle().Render("Assistant is thinking..."))
		b.WriteString("\n\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.theme.hintStyle().Render("Enter to send, Esc to quit"))
	b.WriteString("\n")
	return b.String()
}

func (m chatModel) turnLine(t models.Turn) string {
	return m.theme.roleStyle(t.Role).Render(t.Role.Label()+":") + " " + t.Message
}

// ask sends text off the UI goroutine.
func (m chatModel) ask(text string) tea.Cmd {
	send := m.send
	return func() tea.Msg {
		reply, err := send(context.Background(), text)
		return replyMsg{reply: reply, err: err}
	}
}
