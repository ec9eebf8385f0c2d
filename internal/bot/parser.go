package bot

import (
	"regexp"
	"strings"

	"github.com/Syauqi-N/Bot-Saham/internal/model"
)

var (
	ihsgRe   = regexp.MustCompile(`^!ihsg\b`)
	symbolRe = regexp.MustCompile(`^\$([a-z0-9.]+)`)
)

// Parse maps raw inbound text to a command. Non-commands report ok=false
// and must be ignored by the caller, never treated as an error.
func Parse(text string) (model.Command, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if strings.HasPrefix(lower, "!help") {
		return model.Command{Kind: model.CmdHelp}, true
	}
	if ihsgRe.MatchString(lower) {
		return model.Command{Kind: model.CmdIndexQuote}, true
	}
	if m := symbolRe.FindStringSubmatch(lower); m != nil {
		symbol := strings.ToUpper(m[1])
		symbol = strings.TrimSuffix(symbol, ".JK")
		return model.Command{Kind: model.CmdSymbolQuote, Symbol: symbol}, true
	}
	return model.Command{}, false
}
