package generator

import "github.com/fortunecrack/server/internal/model"

// fallbackText は生成失敗時に使用するロケール別の定型文。
type fallbackText struct {
	Summary  string
	FullText string
	Quote    string
}

// fallbackTexts はロケール別フォールバック文面。
// AllLocalesの全要素を網羅していることをNewで検証する。
var fallbackTexts = map[model.Locale]fallbackText{
	model.LocaleKO: {
		Summary:  "오늘도 좋은 하루 되세요!",
		FullText: "건강과 행운이 함께하는 하루가 될 것입니다.",
		Quote:    "작은 행동이 큰 변화를 만듭니다.",
	},
	model.LocaleJA: {
		Summary:  "今日も良い一日を！",
		FullText: "健康と幸運が共にある一日になるでしょう。",
		Quote:    "小さな行動が大きな変化を生み出します。",
	},
	model.LocaleZH: {
		Summary:  "祝你今天过得愉快！",
		FullText: "愿健康和好运今天与你同在。",
		Quote:    "细小的行动带来巨大的改变。",
	},
	model.LocaleEN: {
		Summary:  "Have a great day!",
		FullText: "May health and good fortune be with you today.",
		Quote:    "Small actions create big changes.",
	},
}

// colorNames はロケール別のラッキーカラー候補。全ロケールで同数・同順。
var colorNames = map[model.Locale][]string{
	model.LocaleEN: {"Golden Yellow", "Sky Blue", "Mystic Purple", "Sunset Orange", "Emerald Green"},
	model.LocaleKO: {"황금색", "하늘색", "신비한 보라색", "노을빛 주황색", "에메랄드 초록색"},
	model.LocaleJA: {"黄金色", "空色", "神秘的な紫色", "夕焼けのオレンジ", "エメラルドグリーン"},
	model.LocaleZH: {"金黄色", "天蓝色", "神秘紫", "夕阳橙", "祖母绿"},
}

// fallbackFor はロケールに応じたフォールバック文面を返す。
// 未対応ロケールは英語にフォールバックする。
func fallbackFor(locale model.Locale) fallbackText {
	fb, ok := fallbackTexts[locale]
	if !ok {
		fb = fallbackTexts[model.LocaleEN]
	}
	return fb
}

// PickColor は名前（なければID）の文字コード和からラッキーカラーを決定的に選ぶ。
// 同じプロフィールには常に同じ色が返る。
func PickColor(user *model.UserProfile) string {
	src := user.Name
	if src == "" {
		src = user.ID
	}

	seed := 0
	for _, r := range src {
		seed += int(r)
	}

	colors, ok := colorNames[user.Locale]
	if !ok {
		colors = colorNames[model.LocaleEN]
	}
	return colors[seed%len(colors)]
}
