// Package bot parses chat commands and orchestrates binding lookups, PhiZone
// API calls, and report formatting into a single reply per message.
//
// Every command is one request/response cycle: read binding, one or two
// sequential API calls, format, reply. Errors never escape as errors — the
// four cases (unbound, usage, not found, service failure) each map to a fixed
// reply string, and nothing is retried.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/onnwee/phizone-bot/format"
	"github.com/onnwee/phizone-bot/phizone"
	"github.com/onnwee/phizone-bot/telemetry"
)

// Reply copy. The binding guidance and failure strings are product copy and
// intentionally stable; tests assert on them.
const (
	MsgNotBound     = "你还没有绑定PhiZone账号喵。"
	MsgUnknownError = "喵喵未知错误。"
	MsgUserNotFound = "呃，用户不存在喵。"
	MsgUserInvalid  = "用户有误喵。"
	MsgNoCharts     = "没有找到相关谱面喵。"
	MsgNoRecords    = "你还没有游玩记录喵。"

	usageBind   = "用法：bind <用户ID>"
	usageSearch = "用法：search <关键词...>"
	usageQuery  = "用法：query <谱面ID>"
)

// BindingStore is the per-chat-user record holding the external PhiZone id.
// An empty string means unbound.
type BindingStore interface {
	Get(ctx context.Context, chatUserID string) (string, error)
	Set(ctx context.Context, chatUserID, phizoneID string) error
}

// Handler dispatches chat commands against a binding store and the PhiZone API.
type Handler struct {
	Store  BindingStore
	PZ     *phizone.Client
	Prefix string // e.g. "!pz"; "!phizone" is always accepted as an alias
}

// subcommand aliases, all routed to one of the six commands.
var aliases = map[string]string{
	"bind":        "bind",
	"best":        "best",
	"pb":          "best",
	"b19":         "best",
	"chartsearch": "search",
	"search":      "search",
	"cs":          "search",
	"sc":          "search",
	"s":           "search",
	"chartquery":  "query",
	"chartinfo":   "query",
	"query":       "query",
	"info":        "query",
	"cq":          "query",
	"qc":          "query",
	"q":           "query",
	"i":           "query",
	"randomchart": "random",
	"random":      "random",
	"rc":          "random",
	"r":           "random",
}

// Dispatch parses one chat message. It returns the reply text and whether the
// message was addressed to the bot at all; non-command chatter returns
// ("", false) so the caller can ignore it silently.
func (h *Handler) Dispatch(ctx context.Context, chatUserID, text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", false
	}
	prefix := h.Prefix
	if prefix == "" {
		prefix = "!pz"
	}
	if fields[0] != prefix && fields[0] != "!phizone" {
		return "", false
	}

	cmd := "recent"
	args := fields[1:]
	if len(args) > 0 {
		if canonical, ok := aliases[strings.ToLower(args[0])]; ok {
			cmd = canonical
			args = args[1:]
		}
	}

	telemetry.CountCommand(cmd)
	reply := h.run(ctx, cmd, chatUserID, args)
	if reply == MsgUnknownError {
		telemetry.CountCommandError()
	}
	return reply, true
}

func (h *Handler) run(ctx context.Context, cmd, chatUserID string, args []string) string {
	switch cmd {
	case "bind":
		return h.Bind(ctx, chatUserID, args)
	case "best":
		return h.Best(ctx, chatUserID, args)
	case "search":
		return h.Search(ctx, args)
	case "query":
		return h.Query(ctx, args)
	case "random":
		return h.Random(ctx)
	default:
		return h.Recent(ctx, chatUserID)
	}
}

// Recent replies with the bound user's most recent play. It must not touch the
// network for unbound users.
func (h *Handler) Recent(ctx context.Context, chatUserID string) string {
	id, err := h.Store.Get(ctx, chatUserID)
	if err != nil {
		slog.Warn("binding lookup failed", slog.String("chat_user", chatUserID), slog.Any("err", err))
		return MsgUnknownError
	}
	if id == "" {
		return MsgNotBound
	}
	records, err := h.PZ.GetRecentRecords(ctx, id, 1, 1, true)
	if err != nil {
		slog.Warn("recent records fetch failed", slog.String("phizone_id", id), slog.Any("err", err))
		return MsgUnknownError
	}
	if len(records) == 0 {
		return MsgNoRecords
	}
	rec := records[0]
	return fmt.Sprintf("%s 的最近成绩：\n%s", rec.Owner.UserName, format.RecordDetailed(&rec))
}

// Bind resolves the given PhiZone id and overwrites the caller's binding.
// A 404 leaves the stored binding untouched.
func (h *Handler) Bind(ctx context.Context, chatUserID string, args []string) string {
	if len(args) < 1 {
		return usageBind
	}
	userID := args[0]
	user, err := h.PZ.GetUser(ctx, userID)
	if phizone.IsNotFound(err) {
		return MsgUserNotFound
	}
	if err != nil {
		slog.Warn("bind user lookup failed", slog.String("phizone_id", userID), slog.Any("err", err))
		return MsgUnknownError
	}
	if err := h.Store.Set(ctx, chatUserID, userID); err != nil {
		slog.Error("binding write failed", slog.String("chat_user", chatUserID), slog.Any("err", err))
		return MsgUnknownError
	}
	return "绑定成功，欢迎回来" + user.UserName
}

// Best replies with phi1 + best19 for the given id, falling back to the
// caller's binding when no id argument is passed.
func (h *Handler) Best(ctx context.Context, chatUserID string, args []string) string {
	var userID string
	if len(args) > 0 {
		userID = args[0]
	} else {
		id, err := h.Store.Get(ctx, chatUserID)
		if err != nil {
			slog.Warn("binding lookup failed", slog.String("chat_user", chatUserID), slog.Any("err", err))
			return MsgUnknownError
		}
		if id == "" {
			return MsgNotBound
		}
		userID = id
	}

	user, err := h.PZ.GetUser(ctx, userID)
	if phizone.IsNotFound(err) {
		return MsgUserInvalid
	}
	if err != nil {
		slog.Warn("best user lookup failed", slog.String("phizone_id", userID), slog.Any("err", err))
		return MsgUnknownError
	}
	pb, err := h.PZ.GetPersonalBests(ctx, userID)
	if err != nil {
		slog.Warn("personal bests fetch failed", slog.String("phizone_id", userID), slog.Any("err", err))
		return MsgUnknownError
	}
	if len(pb.Best19) == 0 {
		return fmt.Sprintf("%s 真的玩过游戏吗？", user.UserName)
	}

	lines := make([]string, 0, len(pb.Best19))
	for i := range pb.Best19 {
		lines = append(lines, format.RecordLine(&pb.Best19[i]))
	}
	phi1 := ""
	if pb.Phi1 != nil {
		phi1 = format.RecordLine(pb.Phi1)
	}
	return fmt.Sprintf("%s 的个人最佳：\n\nPhi 1：\n%s\n\nBest 19：\n%s",
		user.UserName, phi1, strings.Join(lines, "\n"))
}

// Search runs a free-text chart search and replies with up to 3 brief blocks.
func (h *Handler) Search(ctx context.Context, args []string) string {
	if len(args) < 1 {
		return usageSearch
	}
	charts, err := h.PZ.SearchCharts(ctx, strings.Join(args, " "), 3)
	if err != nil {
		slog.Warn("chart search failed", slog.String("keywords", strings.Join(args, " ")), slog.Any("err", err))
		return MsgUnknownError
	}
	if len(charts) == 0 {
		return MsgNoCharts
	}
	blocks := make([]string, 0, len(charts))
	for i := range charts {
		blocks = append(blocks, format.ChartBrief(&charts[i]))
	}
	return "找到了以下谱面：\n\n" + strings.Join(blocks, " \n\n")
}

// Query replies with the full rendering of one chart by id.
func (h *Handler) Query(ctx context.Context, args []string) string {
	if len(args) < 1 {
		return usageQuery
	}
	chart, err := h.PZ.GetChart(ctx, args[0])
	if phizone.IsNotFound(err) {
		return MsgNoCharts
	}
	if err != nil {
		slog.Warn("chart query failed", slog.String("chart_id", args[0]), slog.Any("err", err))
		return MsgUnknownError
	}
	return format.ChartFull(chart)
}

// Random replies with the full rendering of a service-chosen random chart.
func (h *Handler) Random(ctx context.Context) string {
	chart, err := h.PZ.GetRandomChart(ctx)
	if err != nil {
		slog.Warn("random chart fetch failed", slog.Any("err", err))
		return MsgUnknownError
	}
	return format.ChartFull(chart)
}
