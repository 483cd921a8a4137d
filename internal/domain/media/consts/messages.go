package consts

// User-visible texts. HTML parse mode.
const (
	MsgWelcome = `👋 Hi, %s!

I download YouTube videos. Send me a video link and pick a quality.
Files are limited to %d MB.

/help - how it works
/history - your recent downloads`

	MsgHelp = `📚 <b>How it works</b>

1. Send a youtube.com or youtu.be video link.
2. Pick one of the offered qualities.
3. Wait for the file to arrive.

Only single videos up to %d MB can be sent. Playlists are not supported.`

	MsgProcessing  = "⏳ Processing link..."
	MsgChooseTitle = "<b>Video:</b> %s\n\nChoose a quality to download:"
	MsgDownloading = "⬇️ Downloading video..."
	MsgUploading   = "⬆️ Uploading video..."
	MsgDoneCaption = "✅ Done: %s"
	MsgRateLimited = "🐢 Too many links, please wait a minute."
	MsgAckWorking  = "Working on it..."
	MsgAckBusy     = "Already working on this one."

	MsgAckRestarting = "The bot is restarting, try again shortly."
	MsgRestarting    = "🔄 The bot is restarting. Press the button to try again in a minute."

	MsgHistoryEmpty    = "📋 You have no downloads yet."
	MsgHistoryHeader   = "📋 <b>Recent downloads:</b>\n"
	MsgHistoryDisabled = "📋 Download history is not enabled."

	// Resolution failures
	MsgInvalidURL          = "🔗 Please send a regular YouTube video link."
	MsgProviderUnreachable = "⚠️ YouTube could not be reached right now. Please try again later."
	MsgRestricted          = "❌ This video is private or unavailable."
	MsgNoEligible          = "😕 Sorry, no option under %d MB was found."

	// Selection failures
	MsgBadSelection   = "❌ This button is not valid. Please send the link again."
	MsgSessionExpired = "⌛ This selection has expired. Please send the link again."
	MsgFormatGone     = "😕 This quality is no longer available. Please send the link again."
	MsgDownloadFailed = "❌ Download failed. Press the button to try again later."
	BtnRetry          = "🔁 Try again"
	MsgUploadFailed   = "❌ Sending the file failed. Press the button to try again."
	MsgUnknownError   = "❌ Something went wrong."
)
