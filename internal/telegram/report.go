package telegram

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/serroba/linkbot/internal/analytics"
	"github.com/serroba/linkbot/internal/shortener"
)

// Replies are sent as MarkdownV2, so every piece of plain text goes through esc.

const (
	topLocations    = 5
	maxListedLinks  = 20
	createdLayout   = "Jan 2, 2006 15:04 UTC"
	noDataLine      = "   • No data yet"
	neverClickedTxt = "Never"
)

func esc(s string) string {
	return bot.EscapeMarkdown(s)
}

func bold(s string) string {
	return "*" + esc(s) + "*"
}

func code(s string) string {
	return "`" + esc(s) + "`"
}

// ShortURL joins the public base URL and an alias.
func ShortURL(baseURL string, alias shortener.Alias) string {
	return strings.TrimRight(baseURL, "/") + "/" + string(alias)
}

func percent(count, total int) int {
	if total == 0 {
		return 0
	}

	return int(math.Round(float64(count) * 100 / float64(total)))
}

func writeDistribution(b *strings.Builder, title string, counts []analytics.Count, total int) {
	b.WriteString("\n" + bold(title) + "\n")

	if len(counts) == 0 {
		b.WriteString(esc(noDataLine) + "\n")

		return
	}

	for _, c := range counts {
		line := fmt.Sprintf("   • %s: %d (%d%%)", c.Name, c.Count, percent(c.Count, total))
		b.WriteString(esc(line) + "\n")
	}
}

// FormatStats renders the /track report.
func FormatStats(stats *analytics.Statistics, baseURL string, now time.Time) string {
	var b strings.Builder

	b.WriteString("📊 " + bold("URL Statistics for "+stats.Alias) + "\n\n")
	b.WriteString("🔗 " + bold("Short URL:") + " " + code(ShortURL(baseURL, shortener.Alias(stats.Alias))) + "\n")
	b.WriteString("🎯 " + bold("Original:") + " " + esc(stats.OriginalURL) + "\n\n")

	b.WriteString("🔢 " + bold("Clicks:") + "\n")
	b.WriteString(esc("   • Total: "+strconv.Itoa(stats.TotalClicks)) + "\n")
	b.WriteString(esc("   • Unique: "+strconv.Itoa(stats.UniqueClicks)) + "\n")

	writeDistribution(&b, "🌐 Browsers:", analytics.Top(stats.Browsers, 0), stats.TotalClicks)
	writeDistribution(&b, "📱 Devices:", analytics.Top(stats.Devices, 0), stats.TotalClicks)
	writeDistribution(&b, "📍 Top Locations:", analytics.Top(stats.Locations, topLocations), stats.TotalClicks)

	b.WriteString("\n" + bold("🕒 Recent Clicks:") + "\n")

	if len(stats.RecentClicks) == 0 {
		b.WriteString(esc(noDataLine) + "\n")
	}

	for _, c := range stats.RecentClicks {
		line := fmt.Sprintf("   • %s • %s • %s • %s", c.Location, c.Browser, c.Device, c.TimeAgo)
		b.WriteString(esc(line) + "\n")
	}

	lastClicked := neverClickedTxt
	if stats.LastClicked != nil {
		lastClicked = analytics.FormatTimeAgo(*stats.LastClicked, now)
	}

	b.WriteString("\n⏰ " + bold("Last Clicked:") + " " + esc(lastClicked) + "\n")
	b.WriteString("🗓 " + bold("Created:") + " " + esc(stats.Created.UTC().Format(createdLayout)))

	return b.String()
}

// FormatLinkList renders the /urls listing. links are expected newest first.
func FormatLinkList(links []*shortener.ShortLink, baseURL string, now time.Time) string {
	if len(links) == 0 {
		return esc("📭 You have no short links yet. Send /shorten <url> to create one.")
	}

	var b strings.Builder

	b.WriteString("📋 " + bold("Your short links:") + "\n")

	shown := links
	if len(shown) > maxListedLinks {
		shown = shown[:maxListedLinks]
	}

	for i, link := range shown {
		b.WriteString("\n" + esc(strconv.Itoa(i+1)+". ") + code(ShortURL(baseURL, link.Alias)) + "\n")
		b.WriteString(esc("   ➜ "+link.OriginalURL) + "\n")

		clicks := "clicks"
		if link.Clicks == 1 {
			clicks = "click"
		}

		meta := fmt.Sprintf("   👆 %d %s • created %s", link.Clicks, clicks, analytics.FormatTimeAgo(link.CreatedAt, now))
		b.WriteString(esc(meta) + "\n")
	}

	if hidden := len(links) - len(shown); hidden > 0 {
		b.WriteString("\n" + esc(fmt.Sprintf("…and %d older links", hidden)))
	}

	return b.String()
}

// BulkResult is the outcome of one URL in a bulk request.
type BulkResult struct {
	Input string
	Link  *shortener.ShortLink
	Err   error
}

// FormatBulk renders the per URL outcomes followed by the summary line.
func FormatBulk(results []BulkResult, baseURL string) string {
	var b strings.Builder

	b.WriteString("🔗 " + bold("Shortened URLs:") + "\n\n")

	succeeded := 0

	for _, r := range results {
		switch {
		case r.Err == nil:
			succeeded++

			b.WriteString(esc("✅ "+r.Input) + "\n" + esc("➜ ") + code(ShortURL(baseURL, r.Link.Alias)) + "\n\n")
		case errors.Is(r.Err, shortener.ErrInvalidURL):
			b.WriteString(esc("❌ Invalid URL: "+r.Input) + "\n")
		default:
			b.WriteString(esc("❌ Failed to shorten: "+r.Input) + "\n")
		}
	}

	b.WriteString("\n" + esc(fmt.Sprintf("📊 Successfully shortened: %d/%d", succeeded, len(results))))

	return b.String()
}
