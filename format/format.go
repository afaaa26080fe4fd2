// Package format renders PhiZone entities as chat-ready text blocks.
// Every function here is a pure transform over already-decoded values from the
// phizone package, so the templates are testable without any network access.
package format

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/onnwee/phizone-bot/phizone"
)

// mentionPattern matches the embedded user-mention tokens PhiZone stores inside
// author fields, e.g. "[PZUser:123:Alice:PZRT]" or "[PZUserMention:456:Bob:PZRT]".
var mentionPattern = regexp.MustCompile(`\[PZUser(?:Mention)?:\d+:(.+?):PZRT\]`)

// displayZone is the zone all API timestamps are rendered in (UTC+8).
var displayZone = time.FixedZone("UTC+8", 8*60*60)

// ResolveMentions rewrites every mention token in s to the embedded display
// name. Text without tokens is returned unchanged.
func ResolveMentions(s string) string {
	return mentionPattern.ReplaceAllString(s, "$1")
}

// ConvertTimestamp takes an ISO 8601 timestamp (UTC, optional fractional
// seconds) and renders it in UTC+8 as "yyyy-MM-dd HH:mm:ss". Inputs that do not
// parse are returned verbatim rather than failing the whole report.
func ConvertTimestamp(iso string) string {
	s := iso
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, "Z")
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		return iso
	}
	return t.In(displayZone).Format("2006-01-02 15:04:05")
}

// levelTag renders the "[EZ 7]" style level marker. Difficulty is floored, not
// rounded, whenever it appears next to the level label.
func levelTag(level string, difficulty float64) string {
	return fmt.Sprintf("[%s %d]", level, int(math.Floor(difficulty)))
}

// illustrator prefers the chart-level illustrator and falls back to the song's.
func illustrator(c *phizone.Chart) string {
	if c.Illustrator != "" {
		return c.Illustrator
	}
	return c.Song.Illustrator
}

func rankedTag(c *phizone.Chart) string {
	if c.IsRanked {
		return " [Ranked]"
	}
	return ""
}

// ChartBrief renders the compact chart block used in search results.
func ChartBrief(c *phizone.Chart) string {
	return fmt.Sprintf(`%s %s%s
 曲师：%s
 画师：%s
 谱师：%s
 物量：%d
 ID：%s`,
		c.Song.Title, levelTag(c.Level, c.Difficulty), rankedTag(c),
		ResolveMentions(c.Song.AuthorName),
		illustrator(c),
		ResolveMentions(c.AuthorName),
		c.NoteCount,
		c.ID)
}

// ChartFull renders the detailed chart block used for direct lookups and the
// random-chart command. It extends the brief view with the exact difficulty,
// rating breakdown, play statistics, timestamps, and tags.
func ChartFull(c *phizone.Chart) string {
	tags := make([]string, 0, len(c.Tags))
	for _, t := range c.Tags {
		tags = append(tags, t.Name)
	}
	return fmt.Sprintf(`%s %s%s
 曲师：%s
 画师：%s
 谱师：%s
 定数：%.1f
 物量：%d
 评分：%.2f（配置 %.2f / 游玩体验 %.2f / 视觉效果 %.2f / 创新度 %.2f）
 游玩数：%d
 点赞数：%d
 创建时间：%s
 更新时间：%s
 文件更新时间：%s
 标签：%s
 ID：%s`,
		c.Song.Title, levelTag(c.Level, c.Difficulty), rankedTag(c),
		ResolveMentions(c.Song.AuthorName),
		illustrator(c),
		ResolveMentions(c.AuthorName),
		c.Difficulty,
		c.NoteCount,
		c.Rating, c.RatingOnArrangement, c.RatingOnGameplay, c.RatingOnVisualEffects, c.RatingOnCreativity,
		c.PlayCount,
		c.LikeCount,
		ConvertTimestamp(c.DateCreated),
		ConvertTimestamp(c.DateUpdated),
		ConvertTimestamp(c.DateFileUpdated),
		strings.Join(tags, "，"),
		c.ID)
}

// RecordLine renders the single-line record summary used in best lists.
func RecordLine(r *phizone.Record) string {
	return fmt.Sprintf("%s %s %07d %.2f%% %.3f",
		r.Chart.Song.Title, levelTag(r.Chart.Level, r.Chart.Difficulty),
		r.Score, r.Accuracy*100, r.Rks)
}

// RecordDetailed renders the multi-line judgment breakdown for one record.
func RecordDetailed(r *phizone.Record) string {
	return fmt.Sprintf(`%s %s
 分数：%07d
 准确率：%.2f%%
 最大连击：%d
 Perfect：%d
 Good：%d [E:%d L:%d]
 Bad：%d
 Miss：%d
 RKS：%.3f
 标准差：%.2fms
 游玩时间：%s`,
		r.Chart.Song.Title, levelTag(r.Chart.Level, r.Chart.Difficulty),
		r.Score,
		r.Accuracy*100,
		r.MaxCombo,
		r.Perfect,
		r.GoodEarly+r.GoodLate, r.GoodEarly, r.GoodLate,
		r.Bad,
		r.Miss,
		r.Rks,
		r.StdDeviation,
		ConvertTimestamp(r.DateCreated))
}
