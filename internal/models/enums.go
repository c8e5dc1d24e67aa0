package models

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var Statuses = []Status{StatusPending, StatusApproved, StatusRejected}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Reviewed reports whether a decision has been recorded.
func (s Status) Reviewed() bool {
	return s == StatusApproved || s == StatusRejected
}

// Channel is a publishing surface a preview targets.
type Channel string

const (
	ChannelInstagram  Channel = "instagram"
	ChannelLinkedIn   Channel = "linkedin"
	ChannelX          Channel = "x"
	ChannelFacebook   Channel = "facebook"
	ChannelBlogPost   Channel = "blog_post"
	ChannelCustomPost Channel = "custom_post"
)

// WizardChannels are the choices offered by the single-preview wizard.
var WizardChannels = []Channel{
	ChannelInstagram,
	ChannelLinkedIn,
	ChannelX,
	ChannelFacebook,
	ChannelBlogPost,
}

func (c Channel) Valid() bool {
	switch c {
	case ChannelInstagram, ChannelLinkedIn, ChannelX, ChannelFacebook, ChannelBlogPost, ChannelCustomPost:
		return true
	}
	return false
}

// Template is the layout a channel draft follows.
type Template string

const (
	TemplateAnnouncement Template = "announcement"
	TemplateEducational  Template = "educational"
	TemplatePromotional  Template = "promotional"
	TemplateStory        Template = "story"
	TemplateQuote        Template = "quote"
	TemplateCustom       Template = "custom"
)

var Templates = []Template{
	TemplateAnnouncement,
	TemplateEducational,
	TemplatePromotional,
	TemplateStory,
	TemplateQuote,
	TemplateCustom,
}

func (t Template) Valid() bool {
	for _, v := range Templates {
		if v == t {
			return true
		}
	}
	return false
}

// Platform keys per-platform social copy inside ideas and payloads.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformX         Platform = "x"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
)

var Platforms = []Platform{
	PlatformFacebook,
	PlatformInstagram,
	PlatformX,
	PlatformLinkedIn,
	PlatformTikTok,
	PlatformYouTube,
}

func (p Platform) Valid() bool {
	for _, v := range Platforms {
		if v == p {
			return true
		}
	}
	return false
}
