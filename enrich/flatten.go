// Package enrich 为帖子生成摘要与类别，产出物品表（core.EnrichedItem）。
package enrich

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rushteam/resonance/core"
)

// FlatPost 是展开后的帖子：上游 post_summary 的多种键名统一成固定字段。
type FlatPost struct {
	ID                    int64    `json:"id"`
	Description           string   `json:"description"`
	Slug                  string   `json:"slug"`
	Title                 string   `json:"title"`
	UpvoteCount           int      `json:"upvote_count"`
	ViewCount             int      `json:"view_count"`
	AverageRating         float64  `json:"average_rating"`
	Username              string   `json:"username"`
	MainActions           []string `json:"main_actions"`
	AudioElementSpecifics []string `json:"audio_element_specifics"`
	PostDescription       string   `json:"post_description"`
	PrimaryEmotions       []string `json:"primary_emotions"`
	MainCharacterGender   string   `json:"main_character_gender"`
	EstimatedDuration     string   `json:"estimated_duration"`
	Keywords              []string `json:"keywords"`
	NoOfPersonInVideo     int      `json:"no_of_person_in_video"`
	TargetedAudience      []string `json:"targeted_audience"`
	VideoTheme            string   `json:"video_theme"`
	VisualStorytelling    string   `json:"visual_storytelling"`
	EmotionalConflicts    string   `json:"emotional_conflicts"`
	VisualElements        []string `json:"visual_elements"`
	QualityIndicators     []string `json:"quality_indicators"`
	PsychologicalViews    []string `json:"psychological_views"`
}

// summaryInput 是发给摘要模型的字段子集，字段顺序即 JSON 输出顺序。
type summaryInput struct {
	Description           string   `json:"description"`
	MainActions           []string `json:"main_actions"`
	AudioElementSpecifics []string `json:"audio_element_specifics"`
	PostDescription       string   `json:"post_description"`
	PrimaryEmotions       []string `json:"primary_emotions"`
	TargetedAudience      []string `json:"targeted_audience"`
	VideoTheme            string   `json:"video_theme"`
	VisualStorytelling    string   `json:"visual_storytelling"`
	EmotionalConflicts    string   `json:"emotional_conflicts"`
	VisualElements        []string `json:"visual_elements"`
	QualityIndicators     []string `json:"quality_indicators"`
	PsychologicalViews    []string `json:"psychological_views"`
}

// FlattenPost 展开帖子。post_summary 缺失或不是对象时各字段取零值。
//
// 上游 post_summary 的键名并不统一，每个字段按顺序尝试多个候选键，取第一个非空值，例如
// actions.main_actions → actions.key_actions。
func FlattenPost(p core.Post) FlatPost {
	fp := FlatPost{
		ID:            p.ID,
		Slug:          p.Slug,
		Title:         p.Title,
		UpvoteCount:   p.UpvoteCount,
		ViewCount:     p.ViewCount,
		AverageRating: p.AverageRating,
		Username:      p.Username,
	}
	if p.Category != nil {
		fp.Description = p.Category.Description
	}

	var s map[string]any
	if len(p.PostSummary) == 0 || json.Unmarshal(p.PostSummary, &s) != nil || s == nil {
		return fp
	}

	fp.MainActions = firstList(s, "actions", "main_actions", "key_actions")
	fp.AudioElementSpecifics = firstList(s, "audio_elements", "specifics", "specific_audio_features")
	fp.PostDescription = text(s["description"])
	fp.PrimaryEmotions = firstList(s, "emotions", "primary_emotions", "emotional_content", "moods")

	entities := object(s["entities"])
	for _, who := range []string{"main_character", "main_entity", "speaker"} {
		if g := text(object(entities[who])["gender"]); g != "" {
			fp.MainCharacterGender = g
			break
		}
	}

	fp.EstimatedDuration = text(s["estimated_duration"])
	if kws, ok := s["keywords"].([]any); ok {
		for _, kw := range kws {
			if m, ok := kw.(map[string]any); ok {
				if v, ok := m["keyword"]; ok {
					fp.Keywords = append(fp.Keywords, text(v))
				}
			}
		}
	}
	if n, ok := s["no_of_person_in_video"].(float64); ok {
		fp.NoOfPersonInVideo = int(n)
	}
	// 上游键名拼写如此
	fp.TargetedAudience = firstList(s, "targeted_audiance", "groups", "relevant_groups")

	topics := object(s["topics_of_video"])
	fp.VideoTheme = firstText(topics, "theme", "main_topic", "main")
	fp.VisualStorytelling = firstText(topics, "visual_storytelling", "sub_topics")
	fp.EmotionalConflicts = text(topics["emotional_conflicts"])

	fp.VisualElements = firstList(s, "visual_elements_of_video", "notable_features", "notable_visuals", "notable_elements")
	fp.QualityIndicators = firstList(s, "quality_indicators", "marks", "video_quality", "indicators")
	fp.PsychologicalViews = firstList(s, "psycological_view_of_video", "traits")
	return fp
}

func (fp FlatPost) summaryInput() summaryInput {
	return summaryInput{
		Description:           fp.Description,
		MainActions:           fp.MainActions,
		AudioElementSpecifics: fp.AudioElementSpecifics,
		PostDescription:       fp.PostDescription,
		PrimaryEmotions:       fp.PrimaryEmotions,
		TargetedAudience:      fp.TargetedAudience,
		VideoTheme:            fp.VideoTheme,
		VisualStorytelling:    fp.VisualStorytelling,
		EmotionalConflicts:    fp.EmotionalConflicts,
		VisualElements:        fp.VisualElements,
		QualityIndicators:     fp.QualityIndicators,
		PsychologicalViews:    fp.PsychologicalViews,
	}
}

// Item 组合展开字段与摘要结果，得到物品表记录。
func (fp FlatPost) Item(r Result) core.EnrichedItem {
	return core.EnrichedItem{
		PostID:              fp.ID,
		Summary:             r.Summary,
		Category:            r.Category,
		Keywords:            core.Keywords(fp.Keywords),
		Username:            fp.Username,
		UpvoteCount:         fp.UpvoteCount,
		ViewCount:           fp.ViewCount,
		AverageRating:       fp.AverageRating,
		NoOfPersonInVideo:   fp.NoOfPersonInVideo,
		EstimatedDuration:   fp.EstimatedDuration,
		MainCharacterGender: fp.MainCharacterGender,
	}
}

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// text 把任意 JSON 值转成字符串：列表以 ", " 拼接，整数不带小数点。
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprint(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := text(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

func list(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		if s := text(v); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s := text(e); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// firstList 取 s[parent] 下第一个非空的列表字段。
func firstList(s map[string]any, parent string, keys ...string) []string {
	obj := object(s[parent])
	for _, k := range keys {
		if l := list(obj[k]); len(l) > 0 {
			return l
		}
	}
	return nil
}

func firstText(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if t := text(obj[k]); t != "" {
			return t
		}
	}
	return ""
}
