package bot

const (
	msgWelcome         = "👋 Welcome to MeetAnonymousBOT!\n\nLet's set up your profile 💫"
	msgAskGender       = "Choose your gender:"
	msgAskAge          = "🎂 Now send your age (just type a number):"
	msgAskLocation     = "📍 Now send your location:"
	msgAskInterest     = "🎯 Lastly, type your interest (anything you like):"
	msgProfileDone     = "✨ Profile complete!"
	msgFindHint        = "Type /find to meet someone new 👀"
	msgNeedProfile     = "⚠️ Please finish your profile first."
	msgBadGender       = "⚠️ Please select 'Male' or 'Female' using the buttons."
	msgBadAge          = "⚠️ Please enter a valid age between 10 and 120."
	msgBadValue        = "⚠️ Please send a short text, up to 64 characters."
	msgSearching       = "🔍 Searching for someone... please wait a moment 🌙"
	msgAlreadySearch   = "⏳ You're already searching for someone…"
	msgAlreadyChatting = "💬 You're already chatting with someone!"
	msgNotChatting     = "⚠️ You're not chatting with anyone. Type /find to start chatting 💬"
	msgConnected       = "🌟 You're now connected!"
	msgSayHi           = "Say hi 👋"
	msgPartnerLeft     = "💔 Your partner left the chat."
	msgChatEnded       = "❌ Chat ended. Type /find to search again 🔎"
	msgSearchCancelled = "🛑 Search cancelled."
	msgPartnerGone     = "💔 Your partner is unreachable, the chat was closed."
	msgTimedOut        = "⌛ The chat was closed after a long silence. Type /find to search again 🔎"
	msgBlocked         = "🚫 Blocked. You will not be matched with this person again."
	msgPremiumRequired = "💎 Filtered search is a premium feature. Invite friends with /invite to unlock it."
	msgUnsupported     = "⚠️ This kind of message can't be forwarded."
	msgReset           = "🗑 Your profile was deleted. Let's start over."
	msgSlowDown        = "🐢 You're sending messages too fast. Please slow down."
	msgUnknownField    = "⚠️ Unknown field. Use one of: gender, age, location, interest."
	msgInternal        = "⚠️ Something went wrong, please try again."
	msgHelp            = "💬 Commands:\n" +
		"/find [male|female] - find a partner (filters need premium)\n" +
		"/next - leave this chat and find another\n" +
		"/stop - end the chat or stop searching\n" +
		"/block - end the chat and never meet this partner again\n" +
		"/profile - show your profile\n" +
		"/edit <field> - change gender, age, location or interest\n" +
		"/reset - delete your profile\n" +
		"/premium - premium status\n" +
		"/invite - your invite link"
)
