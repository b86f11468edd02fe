// Package i18n holds the client's hard-coded UI strings.
package i18n

import "strings"

// Text is the UI string table for one language.
type Text struct {
	CheckBackend string
	GetStarted   string
	Language     string
	ChatTitle    string
	Starting     string
	StartChat    string
	Note         string
	Refresh      string
	Welcome      string
	Placeholder  string
	Send         string
	Footer       string
	StartError   string
	SendError    string
	Thinking     string
}

const Fallback = "en"

var tables = map[string]Text{
	"en": {
		CheckBackend: "Check backend",
		GetStarted:   "Get started",
		Language:     "Language",
		ChatTitle:    "Chat title",
		Starting:     "Starting...",
		StartChat:    "Start Chat",
		Note:         "Tip: Ask about soil, fertilizer, irrigation, pests in your language.",
		Refresh:      "Refresh",
		Welcome:      "Welcome! Ask any agriculture question to begin.",
		Placeholder:  "Type your question and press Enter...",
		Send:         "Send",
		Footer:       "Built for farmers to get quick guidance in regional languages.",
		StartError:   "Could not start chat. Please try again.",
		SendError:    "Could not send message. Please try again.",
		Thinking:     "Thinking...",
	},
	"hi": {
		CheckBackend: "बैकएंड जाँचें",
		GetStarted:   "शुरू करें",
		Language:     "भाषा",
		ChatTitle:    "चैट शीर्षक",
		Starting:     "प्रारंभ हो रहा है...",
		StartChat:    "चैट शुरू करें",
		Note:         "सुझाव: मिट्टी, खाद, सिंचाई, कीट आदि के बारे में अपनी भाषा में पूछें।",
		Refresh:      "रीफ़्रेश",
		Welcome:      "स्वागत है! कृषि से जुड़े किसी भी प्रश्न से शुरू करें।",
		Placeholder:  "अपना प्रश्न लिखें और Enter दबाएँ...",
		Send:         "भेजें",
		Footer:       "किसानों के लिए क्षेत्रीय भाषाओं में त्वरित मार्गदर्शन।",
		StartError:   "चैट शुरू नहीं हो सकी, कृपया पुनः प्रयास करें।",
		SendError:    "संदेश नहीं भेजा जा सका, कृपया पुनः प्रयास करें।",
		Thinking:     "सोच रहा हूँ...",
	},
	"ta": {
		CheckBackend: "பின்தளத்தை சரிபார்",
		GetStarted:   "தொடங்கவும்",
		Language:     "மொழி",
		ChatTitle:    "அரட்டை தலைப்பு",
		Starting:     "தொடங்குகிறது...",
		StartChat:    "அரட்டை தொடங்கு",
		Note:         "குறிப்பு: மண், உரம், பாசனம், பூச்சிகள் பற்றி உங்கள் மொழியில் கேளுங்கள்.",
		Refresh:      "புதுப்பிக்க",
		Welcome:      "வரவேற்கிறோம்! வேளாண்மை கேள்வியுடன் தொடங்குங்கள்.",
		Placeholder:  "உங்கள் கேள்வியை எழுதுங்கள்...",
		Send:         "அனுப்பு",
		Footer:       "மண்டல மொழிகளில் விவசாயிகளுக்கான உதவி.",
		StartError:   "அரட்டை தொடங்க முடியவில்லை.",
		SendError:    "செய்தி அனுப்ப முடியவில்லை.",
		Thinking:     "சிந்திக்கிறது...",
	},
}

// For returns the table for lang, or English when lang has none.
func For(lang string) Text {
	if t, ok := tables[strings.ToLower(lang)]; ok {
		return t
	}
	return tables[Fallback]
}

// Has reports whether lang has its own table.
func Has(lang string) bool {
	_, ok := tables[strings.ToLower(lang)]
	return ok
}
