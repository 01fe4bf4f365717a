// Package menu describes the inline dashboards independently of any
// messaging library.
package menu

// Callback actions carried by dashboard buttons.
const (
	ActionDeleteReposts = "delete_reposts"
	ActionSendTicket    = "send_ticket"
	ActionDashboard     = "dashboard_main"
	ActionBackMain      = "back_main"
	ActionUserCount     = "user_count"
	ActionExportUsers   = "export_users"
	ActionToggleBot     = "toggle_bot"
	ActionEditWelcome   = "edit_welcome"
	ActionViewTickets   = "view_tickets"
	ActionBlockUser     = "block_user"
	ActionUnblockUser   = "unblock_user"
	ActionBroadcast     = "broadcast"
)

// External links shown on the general menu.
const (
	URLAutoExtract = "https://vt.tiktok.com/ZSkUaFXQf/"
	URLHowTo       = "https://t.me/sessionid_extractor_bot"
	URLDonate      = "https://example.com/donate"
)

// Mode selects which dashboard to render.
type Mode int

const (
	General Mode = iota
	Owner
)

func (m Mode) String() string {
	switch m {
	case General:
		return "general"
	case Owner:
		return "owner"
	default:
		return "unknown"
	}
}

// Button is either a callback button (Action set) or a link button (URL set).
type Button struct {
	Label  string
	Action string
	URL    string
}

// IsLink reports whether the button opens a URL instead of sending a callback.
func (b Button) IsLink() bool {
	return b.URL != ""
}

// Row is one line of buttons.
type Row []Button

// Render returns the rows for mode. Unknown modes render nothing.
func Render(mode Mode) []Row {
	switch mode {
	case General:
		return []Row{
			{{Label: "🗑️ حذف الريبوستات", Action: ActionDeleteReposts}},
			{{Label: "📄 استخراج sessionid تلقائيًا", URL: URLAutoExtract}},
			{{Label: "📌 شرح استخراج sessionid", URL: URLHowTo}},
			{{Label: "💖 دعم البوت للاستمرار", URL: URLDonate}},
			{{Label: "📩 إرسال تذكرة دعم", Action: ActionSendTicket}},
		}
	case Owner:
		return []Row{
			{
				{Label: "👥 عدد المستخدمين", Action: ActionUserCount},
				{Label: "📂 تصدير المستخدمين", Action: ActionExportUsers},
			},
			{
				{Label: "🔒 تعطيل/تفعيل البوت", Action: ActionToggleBot},
				{Label: "📝 تعديل رسالة الترحيب", Action: ActionEditWelcome},
			},
			{
				{Label: "🎟️ عرض سجل التذاكر", Action: ActionViewTickets},
				{Label: "❌ حظر مستخدم", Action: ActionBlockUser},
			},
			{
				{Label: "📢 إرسال رسالة جماعية", Action: ActionBroadcast},
				{Label: "✅ فك حظر مستخدم", Action: ActionUnblockUser},
			},
		}
	default:
		return nil
	}
}

// Back builds the single-row keyboard that returns to target.
func Back(target string) []Row {
	return []Row{{{Label: "🔙 رجوع", Action: target}}}
}

// OwnerOnly reports whether action may only be triggered from the owner chat.
func OwnerOnly(action string) bool {
	switch action {
	case ActionDashboard, ActionUserCount, ActionExportUsers, ActionToggleBot,
		ActionEditWelcome, ActionViewTickets, ActionBlockUser, ActionUnblockUser, ActionBroadcast:
		return true
	default:
		return false
	}
}
