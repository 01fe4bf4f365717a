package telegram

// User-facing texts. The bot speaks Arabic only.
const (
	textOwnerDashboard = "📊 لوحة تحكم المالك:"
	textCallbackDenied = "❌ ليس لديك صلاحية الوصول."
	textCommandDenied  = "🚫 ليس لديك صلاحية الوصول."

	textPromptSession   = "🗑️ أرسل sessionid الآن لبدء العد والحذف."
	textPromptTicket    = "✍️ أرسل استفسارك أو مشكلتك الآن:"
	textPromptWelcome   = "✍️ أرسل رسالة الترحيب الجديدة الآن:"
	textPromptBlock     = "❌ أرسل الآن ID المستخدم الذي تريد حظره:"
	textPromptUnblock   = "✅ أرسل الآن ID المستخدم الذي تريد فك حظره:"
	textPromptBroadcast = "📢 أرسل الآن الرسالة التي تريد إرسالها لكل المستخدمين:"

	textUserCount     = "👥 عدد المستخدمين: %d"
	textToggled       = "↺ تم تغيير حالة البوت: %s"
	textStateEnabled  = "✅ مفعل"
	textStateDisabled = "⛔️ معطل"
	textNoTickets     = "📿 لا توجد تذاكر حتى الآن."
	textTicketsSent   = "✅ تم إرسال التذاكر إلى المالك."

	textTicketReceived = "✅ تم إرسال تذكرتك بنجاح."
	textWelcomeUpdated = "✅ تم تعديل رسالة الترحيب."
	textInvalidChatID  = "❌ يجب إرسال ID رقمي صحيح."
	textUserBlocked    = "❌ تم حظر المستخدم %s."
	textUserUnblocked  = "✅ تم فك حظر المستخدم %s."
	textNotBlocked     = "ℹ️ المستخدم %s غير محظور."
	textBroadcastDone  = "📢 تم إرسال الرسالة إلى %d مستخدم."

	textInvalidSession = "❌ يرجى إرسال sessionid صالح."
	textProcessing     = "🔄 جاري تنفيذ العملية..."
	textCleanSuccess   = "✅ تم حذف %s من الريبوستات بنجاح."
	textCleanFailed    = "❌ فشل الحذف: %s"
	textUnknownReason  = "غير معروف"
	textCleanerDown    = "⚠️ حدث خطأ أثناء التواصل مع الخادم."
)
