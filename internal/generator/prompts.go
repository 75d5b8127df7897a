package generator

import (
	"fmt"
	"strings"
	"time"

	"github.com/fortunecrack/server/internal/model"
)

// systemPrompt は運勢生成リクエストに付与するシステムメッセージ。
const systemPrompt = "You are a helpful assistant that generates fortune telling results in JSON format."

// dateLayout は運勢の日付キーのレイアウト（YYYY-MM-DD）。
const dateLayout = "2006-01-02"

// accuracyPlaceholder はペルソナプロンプト内で生時精度に置換されるトークン。
const accuracyPlaceholder = "{{ACCURACY}}"

// localePrompts はロケール別のペルソナプロンプト。
// AllLocalesの全要素を網羅していることをNewで検証する。
var localePrompts = map[model.Locale]string{
	model.LocaleKO: `당신은 사용자의 친한 친구이자 사주명리 전문가입니다. 사주(생년월일시)와 양력/음력 여부, 오늘 날짜를 바탕으로 운세를 분석해주세요.

**톤앤매너:**
- 친구에게 말하듯이 다정하고 친근한 말투(해요체)를 사용하세요.
- 딱딱한 전문가 느낌보다는, 따뜻하게 조언해주는 멘토나 친구 같은 느낌을 주세요.
- 어려운 전문 용어(천간, 지지 등)는 되도록 풀어서 쉽게 설명하거나 생략하고, 실생활에 적용할 수 있는 조언 위주로 작성하세요.

**분석 요소:**
- 출생 사주팔자와 오늘 날짜의 조화
- 오행의 균형

**포함할 내용:**
- 재물, 건강, 인간관계, 직업 중 오늘 특히 신경 써야 할 부분이나 좋은 점을 콕 집어서 이야기해주세요.
- 구체적이고 실천 가능한 조언을 포함하세요.

**중요: 색상 표현 규칙**
- 헥사 코드(#로 시작) 절대 사용 금지
- '황금색', '파란색', '연두색' 같이 누구나 아는 쉬운 색 이름만 사용
- fullText에서도 헥사 코드는 언급하지 마세요

**JSON 형식으로만 응답 (Markdown 코드 블록 금지):**
{"summary":"친구에게 건네는 한 줄 핵심 조언","fullText":"3~4문장으로 전하는 오늘의 운세와 따뜻한 조언 (헥사 코드 금지, 친구 말투)","color":"오늘의 행운의 색 (쉬운 한글 이름)","precision":"{{ACCURACY}}","quote":"오늘 나에게 힘이 되는 한 마디 (격언 또는 응원)"}`,

	model.LocaleJA: `あなたはユーザーの親しい友人であり、四柱推命の専門家です。出生情報と今日の日付をもとに運勢を分析してください。

**トーン＆マナー:**
- 友人に話しかけるように、親しみやすく優しい口調（です・ます調）で話してください。
- 堅苦しい専門家としてではなく、温かくアドバイスする良き理解者として振る舞ってください。
- 難しい専門用語は避け、誰にでも直感的に分かる言葉で説明してください。

**分析要素:**
- 生年月日と今日の日付の相性
- 五行のバランス

**含める内容:**
- 金運、健康、人間関係、仕事の中で、今日特に注目すべき点や良い点を具体的に教えてください。
- 実践的で具体的なアドバイスを含めてください。

**重要：色の表現ルール**
- ヘキサコード（#で始まる）は絶対に使用禁止
- 「金色」「空色」「桜色」のように、一般的で分かりやすい色名のみ使用
- fullTextでもヘキサコードは言及しない

**JSON形式のみで回答（Markdownなし）:**
{"summary":"友人への一行アドバイス","fullText":"3-4文で伝える今日の運勢と温かいアドバイス（ヘキサコード禁止、親しみやすい口調）","color":"今日のラッキーカラー（一般的な色名）","precision":"{{ACCURACY}}","quote":"今日を元気に過ごすための一言（格言や応援）"}`,

	model.LocaleZH: `你是用户的亲密朋友，也是八字命理专家。请根据出生信息和今天的日期来分析运势。

**语气风格:**
- 请像对老朋友说话一样，使用亲切、自然、友好的语气。
- 不要像严厉的算命先生，而要像一位给予温暖建议的人生导师或知己。
- 尽量避免晦涩难懂的专业术语，用通俗易懂的大白话来解释。

**分析要素:**
- 八字与今日日期的互动
- 五行平衡

**包含内容:**
- 请重点指出今天在财运、健康、人际或事业方面最需要注意或最好的地方。
- 提供具体、可操作的实用建议。

**重要：颜色表达规则**
- 绝对禁止使用十六进制代码（#开头）
- 只使用“金黄色”、“淡蓝色”、“草绿色”等通俗易懂的颜色名称
- fullText 中也不要提及十六进制代码

**仅以 JSON 格式回答（无 Markdown 代码块）：**
{"summary":"给朋友的一句核心建议","fullText":"3-4句话的今日运势详解与温馨建议（禁止代码，亲切语气）","color":"今日幸运色（通俗颜色名）","precision":"{{ACCURACY}}","quote":"给人力量的一句话（格言或鼓励）"}`,

	model.LocaleEN: `You are the user's close friend and a Four Pillars of Destiny (Ba Zi) expert. Analyze the fortune based on birth info and today's date.

**Tone & Style:**
- Speak in a warm, friendly, and conversational tone, like giving advice to a best friend.
- Avoid being overly formal or rigid. Be supportive and encouraging.
- Use simple, everyday language. Avoid complex esoteric jargon where possible.

**Analysis Elements:**
- Interaction between birth chart and today's date
- Five Elements balance

**Include:**
- Highlight the most important aspects of wealth, health, relationships, or career for today.
- Provide specific, practical advice.

**IMPORTANT: Color Expression Rules**
- NEVER use hex codes (starting with #)
- ONLY use common color names (e.g., 'Golden Yellow', 'Navy Blue', 'Salmon Pink')
- Do NOT mention hex codes in fullText

**Respond ONLY in JSON format (No Markdown):**
{"summary":"One-line core advice for a friend","fullText":"3-4 sentences of detailed fortune and warm advice (NO hex codes, friendly tone)","color":"Today's lucky color (common name)","precision":"{{ACCURACY}}","quote":"An inspiring quote or motto for today"}`,
}

// weekdayNames はロケール別の曜日名。インデックスはtime.Weekday（日曜=0）に対応する。
var weekdayNames = map[model.Locale][7]string{
	model.LocaleEN: {"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	model.LocaleKO: {"일요일", "월요일", "화요일", "수요일", "목요일", "금요일", "토요일"},
	model.LocaleJA: {"日曜日", "月曜日", "火曜日", "水曜日", "木曜日", "金曜日", "土曜日"},
	model.LocaleZH: {"星期日", "星期一", "星期二", "星期三", "星期四", "星期五", "星期六"},
}

// personaPrompt はロケールに応じたペルソナプロンプトを返す。
// 未対応ロケールは英語にフォールバックし、生時精度のプレースホルダを埋める。
func personaPrompt(locale model.Locale, accuracy model.BirthTimeAccuracy) string {
	p, ok := localePrompts[locale]
	if !ok {
		p = localePrompts[model.LocaleEN]
	}
	if accuracy == "" {
		accuracy = model.AccuracyUnknown
	}
	return strings.ReplaceAll(p, accuracyPlaceholder, string(accuracy))
}

// weekdayName はロケールに応じた曜日名を返す。
func weekdayName(locale model.Locale, wd time.Weekday) string {
	names, ok := weekdayNames[locale]
	if !ok {
		names = weekdayNames[model.LocaleEN]
	}
	return names[int(wd)]
}

// buildUserPrompt は事実情報のプリアンブルとペルソナプロンプトを結合した
// ユーザーメッセージ本文を組み立てる。
func buildUserPrompt(user *model.UserProfile, date string) string {
	t, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		t = time.Now()
	}

	birthTime := user.BirthTime
	if birthTime == "" {
		birthTime = "Unknown"
	}
	calendarType := user.CalendarType
	if calendarType == "" {
		calendarType = model.CalendarSolar
	}

	preamble := fmt.Sprintf(`[User Info]
Name: %s
Birth Date: %s
Birth Time: %s
Birth Time Accuracy: %s
Calendar Type: %s

[Today's Date]
Date: %s (%d-%d-%d)
Day of Week: %s
Language: %s
`,
		user.Name,
		user.BirthDate,
		birthTime,
		user.BirthTimeAccuracy,
		calendarType,
		date, t.Year(), int(t.Month()), t.Day(),
		weekdayName(user.Locale, t.Weekday()),
		user.Locale,
	)

	return preamble + "\n" + personaPrompt(user.Locale, user.BirthTimeAccuracy)
}
