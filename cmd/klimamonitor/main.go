// Command klimamonitor is a terminal dashboard for a running
// klimadriver: per-channel readings, signal quality, last-contact
// staleness, and host resource usage, polled from the driver's
// read-only HTTP API.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	psutil "github.com/shirou/gopsutil/v3/cpu"
	psmem "github.com/shirou/gopsutil/v3/mem"
)

// defaultWrapWidth is used until the first WindowSizeMsg arrives.
const defaultWrapWidth = 80

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	staleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	freshStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250"))
	footerStyle  = lipgloss.NewStyle().Faint(true)
	staleAfter   = 300 * time.Second
	pollInterval = 2 * time.Second
)

type currentResponse map[string]any

type lastStatResponse struct {
	LastSeenTs         string `json:"lastSeenTs"`
	LastLinkQuality    int    `json:"lastLinkQuality"`
	LastWeatherTs      string `json:"lastWeatherTs"`
	LastHistoryIndex   int    `json:"lastHistoryIndex"`
	LatestHistoryIndex int    `json:"latestHistoryIndex"`
}

type apiClient struct {
	baseAddr string
	http     *http.Client
}

func newAPIClient(addr string) *apiClient {
	return &apiClient{baseAddr: addr, http: &http.Client{Timeout: 3 * time.Second}}
}

func (c *apiClient) getCurrent() (currentResponse, error) {
	var out currentResponse
	err := c.getJSON("/api/v1/current", &out)
	return out, err
}

func (c *apiClient) getLastStat() (lastStatResponse, error) {
	var out lastStatResponse
	err := c.getJSON("/api/v1/laststat", &out)
	return out, err
}

func (c *apiClient) getJSON(path string, out any) error {
	resp, err := c.http.Get(c.baseAddr + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type tickMsg time.Time

type pollResultMsg struct {
	current  currentResponse
	lastStat lastStatResponse
	err      error
}

type resourceMsg struct {
	summary string
}

type model struct {
	client   *apiClient
	current  currentResponse
	lastStat lastStatResponse
	resource string
	lastErr  error
	width    int
	table    table.Model
}

func newChannelTable() table.Model {
	columns := []table.Column{
		{Title: "ch", Width: 4},
		{Title: "temp", Width: 8},
		{Title: "humidity", Width: 10},
		{Title: "battery", Width: 8},
	}
	t := table.New(table.WithColumns(columns), table.WithHeight(9), table.WithFocused(false))
	t.SetStyles(table.Styles{
		Header: headerStyle,
		Cell:   lipgloss.NewStyle(),
	})
	return t
}

func initialModel(client *apiClient) model {
	return model{client: client, table: newChannelTable()}
}

// channelRows projects the driver's current-reading map into table rows,
// one per channel 0..8.
func channelRows(current currentResponse) []table.Row {
	rows := make([]table.Row, 0, 9)
	for ch := 0; ch < 9; ch++ {
		temp, _ := current[fmt.Sprintf("temp%d", ch)].(float64)
		humidity, _ := current[fmt.Sprintf("humidity%d", ch)].(float64)
		battery, _ := current[fmt.Sprintf("batteryStatus%d", ch)].(string)
		batteryCell := battery
		if battery == "LOW" {
			batteryCell = staleStyle.Render(battery)
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", ch),
			fmt.Sprintf("%.1f°C", temp),
			fmt.Sprintf("%.0f%%", humidity),
			batteryCell,
		})
	}
	return rows
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.pollCmd(), updateResourceCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func updateResourceCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		cpuPercent, _ := psutil.Percent(0, false)
		memInfo, _ := psmem.VirtualMemory()
		cpu := 0.0
		if len(cpuPercent) > 0 {
			cpu = cpuPercent[0]
		}
		mem := 0.0
		if memInfo != nil {
			mem = memInfo.UsedPercent
		}
		return resourceMsg{summary: fmt.Sprintf("CPU: %.1f%% | RAM: %.1f%% | Go: %s", cpu, mem, runtime.Version())}
	})
}

func (m model) pollCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		current, err := client.getCurrent()
		if err != nil {
			return pollResultMsg{err: err}
		}
		last, err := client.getLastStat()
		return pollResultMsg{current: current, lastStat: last, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		return m, tea.Batch(tickCmd(), m.pollCmd())
	case pollResultMsg:
		m.lastErr = msg.err
		if msg.err == nil {
			m.current = msg.current
			m.lastStat = msg.lastStat
			m.table.SetRows(channelRows(m.current))
		}
	case resourceMsg:
		m.resource = msg.summary
		return m, updateResourceCmd()
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("klimamonitor") + "\n\n")

	if m.lastErr != nil {
		width := m.width
		if width == 0 {
			width = defaultWrapWidth
		}
		msg := ansi.Wordwrap(fmt.Sprintf("unreachable: %v", m.lastErr), width, " \t")
		b.WriteString(staleStyle.Render(msg) + "\n")
	} else {
		b.WriteString(m.table.View() + "\n")
		rx, _ := m.current["rxCheckPercent"].(float64)
		b.WriteString(fmt.Sprintf("\nsignal quality: %.0f%%\n", rx))
		b.WriteString(m.renderStaleness())
	}

	b.WriteString("\n" + footerStyle.Render(m.resource))
	b.WriteString("\n" + footerStyle.Render("q to quit"))
	return b.String()
}

func (m model) renderStaleness() string {
	seen, err := time.Parse(time.RFC3339, m.lastStat.LastSeenTs)
	if err != nil {
		return staleStyle.Render("no contact yet") + "\n"
	}
	age := time.Since(seen)
	line := fmt.Sprintf("last contact: %s ago | history %d/%d", age.Round(time.Second), m.lastStat.LastHistoryIndex, m.lastStat.LatestHistoryIndex)
	if age >= staleAfter {
		return staleStyle.Render(line) + "\n"
	}
	return freshStyle.Render(line) + "\n"
}

func main() {
	addr := flag.String("api-addr", "http://localhost:8090", "klimadriver API base address")
	flag.Parse()

	client := newAPIClient(*addr)
	p := tea.NewProgram(initialModel(client))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "klimamonitor: %v\n", err)
		os.Exit(1)
	}
}
