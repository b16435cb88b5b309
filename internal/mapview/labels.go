package mapview

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Supported display languages. The first one is the fallback.
var supported = []language.Tag{language.Japanese, language.English}

var matcher = language.NewMatcher(supported)

// Message keys are the English format strings. Counts are passed as
// strings because the printer groups digits for %d.
const (
	msgTitle          = "🛴 Lime retrieval map"
	msgUpload         = "Upload the Lime CSV"
	msgListTitle      = "📋 Details"
	msgPopup          = "%s\n%sh ago"
	msgHeader         = "%s (%sh ago)"
	msgNearest        = "Nearest: %s (distance: %sm)"
	msgNearestUnknown = "Nearest: unknown (no coordinates)"
	msgBanner         = "🚨 %s vehicles need retrieval"
	msgEmpty          = "✅ Nothing to retrieve!"
	msgAdmin          = "Lime admin"
	msgRoute          = "Google Maps route"
	msgParseError     = "Could not read the CSV (%s)"
	msgSchemaError    = "Wrong CSV format (%s)"
	msgNoReference    = "Reference port table is not available"
	msgFailure        = "Something went wrong (%s)"
	msgPassword       = "Password"
	msgLogin          = "Log in"
	msgLogout         = "Log out"
	msgWrongPassword  = "incorrect password"
)

func init() {
	ja := language.Japanese
	for key, s := range map[string]string{
		msgTitle:          "🛴 Lime 回収マップ",
		msgUpload:         "LimeのCSVをアップロード",
		msgListTitle:      "📋 詳細リスト",
		msgPopup:          "%s\n%sh前",
		msgHeader:         "%s (%s時間前)",
		msgNearest:        "最寄り: %s (距離: %sm)",
		msgNearestUnknown: "最寄り: 不明 (座標なし)",
		msgBanner:         "🚨 %s台 の回収対象が見つかりました",
		msgEmpty:          "✅ 回収対象はありません！",
		msgAdmin:          "Lime管理画面",
		msgRoute:          "Google Mapルート",
		msgParseError:     "CSVを読み込めませんでした (%s)",
		msgSchemaError:    "CSVの形式が違います (%s)",
		msgNoReference:    "ポート情報が読み込まれていません",
		msgFailure:        "エラーが発生しました (%s)",
		msgPassword:       "パスワード",
		msgLogin:          "ログイン",
		msgLogout:         "ログアウト",
		msgWrongPassword:  "incorrect password",
	} {
		if err := message.SetString(ja, key, s); err != nil {
			panic(err)
		}
	}
}

// Labels renders user-facing strings in one language
type Labels struct {
	Tag     language.Tag
	printer *message.Printer
}

// LabelsFor returns the labels for tag, falling back to Japanese
func LabelsFor(tag language.Tag) Labels {
	_, idx, _ := matcher.Match(tag)
	t := supported[idx]
	return Labels{Tag: t, printer: message.NewPrinter(t)}
}

// Negotiate picks a display language. An explicit override (e.g. ?lang=en)
// wins over the Accept-Language header; fallback is used when neither matches.
func Negotiate(override, acceptLanguage string, fallback language.Tag) Labels {
	if override != "" {
		if tag, err := language.Parse(override); err == nil {
			return LabelsFor(tag)
		}
	}
	if acceptLanguage != "" {
		tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
		if err == nil && len(tags) > 0 {
			_, idx, conf := matcher.Match(tags...)
			if conf != language.No {
				return LabelsFor(supported[idx])
			}
		}
	}
	return LabelsFor(fallback)
}

// Lang is the short language code, e.g. "ja"
func (l Labels) Lang() string {
	base, _ := l.Tag.Base()
	return base.String()
}

func (l Labels) sprintf(key string, args ...interface{}) string {
	if l.printer == nil {
		return LabelsFor(language.Japanese).sprintf(key, args...)
	}
	return l.printer.Sprintf(key, args...)
}

func (l Labels) Title() string          { return l.sprintf(msgTitle) }
func (l Labels) UploadPrompt() string   { return l.sprintf(msgUpload) }
func (l Labels) ListTitle() string      { return l.sprintf(msgListTitle) }
func (l Labels) Empty() string          { return l.sprintf(msgEmpty) }
func (l Labels) AdminButton() string    { return l.sprintf(msgAdmin) }
func (l Labels) RouteButton() string    { return l.sprintf(msgRoute) }
func (l Labels) NoReference() string    { return l.sprintf(msgNoReference) }
func (l Labels) Password() string       { return l.sprintf(msgPassword) }
func (l Labels) Login() string          { return l.sprintf(msgLogin) }
func (l Labels) Logout() string         { return l.sprintf(msgLogout) }
func (l Labels) WrongPassword() string  { return l.sprintf(msgWrongPassword) }
func (l Labels) NearestUnknown() string { return l.sprintf(msgNearestUnknown) }

// VehiclePopup is the vehicle marker label
func (l Labels) VehiclePopup(plate string, hours int) string {
	return l.sprintf(msgPopup, plate, strconv.Itoa(hours))
}

// ListHeader is the collapsed list entry title
func (l Labels) ListHeader(plate string, hours int) string {
	return l.sprintf(msgHeader, plate, strconv.Itoa(hours))
}

// Nearest describes the matched port and its distance in whole metres
func (l Labels) Nearest(port string, meters int) string {
	return l.sprintf(msgNearest, port, strconv.Itoa(meters))
}

// Banner summarises how many candidates were found
func (l Labels) Banner(n int) string {
	return l.sprintf(msgBanner, strconv.Itoa(n))
}

func (l Labels) ParseError(detail string) string  { return l.sprintf(msgParseError, detail) }
func (l Labels) SchemaError(detail string) string { return l.sprintf(msgSchemaError, detail) }
func (l Labels) Failure(detail string) string     { return l.sprintf(msgFailure, detail) }

// Problem localizes a failed pipeline outcome by its kind
// ("parse", "schema", "no_reference" or anything else).
func (l Labels) Problem(kind, detail string) string {
	switch kind {
	case "parse":
		return l.ParseError(detail)
	case "schema":
		return l.SchemaError(detail)
	case "no_reference":
		return l.NoReference()
	default:
		return l.Failure(detail)
	}
}
