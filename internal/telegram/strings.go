package telegram

import "strings"

const helpText = "🤖 Hướng dẫn:\n" +
	"- Chat trực tiếp để hỏi.\n" +
	"- /reset : xóa lịch sử.\n" +
	"- /draw [mô tả] : tạo ảnh AI.\n" +
	"- Gửi 'hi' để nhận lời chào vui vẻ.\n"

var greetings = []string{"hi", "hello", "chào", "alo", "hey", "yo"}

var greetingReplies = []string{
	"👋 Chào bạn! Mình ở đây nè~",
	"🙋‍♀️ Xin chào! Mình có thể giúp gì?",
	"🤗 Hehe, chào cưng! Nói gì đi nào.",
}

var trollWords = []string{"=))", "haha", ":v", "🤣", "troll", "đùa"}

var trollStickers = []string{
	"CAACAgUAAxkBAAEKoHhlg1I4Q2w4o0zMSrcjC3fycqQZlwACRQEAApbW6FYttxIfTrbN6jQE",
	"CAACAgUAAxkBAAEKoH1lg1JY1LtONXyA-VOFe4LEBd6gxgACawEAApbW6FYP4EL9Hx_aVjQE",
}

// isGreeting matches on the first word only, so greetings embedded in longer
// questions still reach the model.
func isGreeting(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	first := strings.ToLower(fields[0])
	for _, g := range greetings {
		if first == g {
			return true
		}
	}
	return false
}

func hasTrollWord(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range trollWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
