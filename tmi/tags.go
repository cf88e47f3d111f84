package tmi

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
)

// Tags содержит полный набор полей, которые могут прийти в тегах любой команды.
// Отсутствующие теги оставляют значения по умолчанию (см. newTags).
type Tags struct {
	BadgeInfo   map[string]int
	Badges      map[string]int
	Bits        int
	BanDuration int
	Color       colorful.Color
	DisplayName string
	Emotes      map[string][]EmoteRange
	EmoteSets   []string

	ID        uuid.UUID
	MessageID string // message-id у WHISPER
	ThreadID  string
	Login     string

	Mod              bool
	Subscriber       bool
	Turbo            bool
	VIP              bool
	FirstMsg         bool
	ReturningChatter bool

	RoomID        string
	UserID        string
	UserType      UserType
	TargetUserID  string
	TargetMsgID   string
	SentTimestamp int64 // tmi-sent-ts, миллисекунды Unix

	// msg-id раскладывается по команде: NOTICE пишет в NoticeID,
	// USERNOTICE в NoticeKind, остальные в MsgID как есть.
	MsgID      string
	NoticeID   string
	NoticeKind UserNoticeKind
	SystemMsg  string

	CustomRewardID         uuid.UUID
	ReplyParentMsgID       uuid.UUID
	ReplyParentUserID      string
	ReplyParentUserLogin   string
	ReplyParentDisplayName string
	ReplyParentMsgBody     string

	EmoteOnly     bool
	FollowersOnly int // минуты; -1 означает, что режим выключен
	R9K           bool
	Rituals       bool
	Slow          int // секунды между сообщениями
	SubsOnly      bool

	Params MessageParams
}

// MessageParams собирает теги msg-param-* из USERNOTICE.
type MessageParams struct {
	CumulativeMonths  int
	DisplayName       string
	Login             string
	Months            int
	PromoGiftTotal    int
	PromoName         string
	ShouldShareStreak bool
	StreakMonths      int
	SubPlan           SubPlan
	SubPlanName       string
	ViewerCount       int
	RitualName        string
	Threshold         int
	GiftMonths        int
	MassGiftCount     int

	MultimonthDuration int
	MultimonthTenure   int
	WasGifted          bool

	RecipientDisplayName string
	RecipientID          string
	RecipientUsername    string
	SenderLogin          string
	SenderName           string

	GoalContributionType     GoalContributionType
	GoalCurrentContributions int
	GoalTargetContributions  int
	GoalUserContributions    int

	Color           string
	ProfileImageURL string

	PriorGifterAnonymous   bool
	PriorGifterDisplayName string
	PriorGifterID          string
	PriorGifterUsername    string
}

func newTags() Tags {
	return Tags{FollowersOnly: -1}
}

type tagKey uint8

const (
	tagBanDuration tagKey = iota + 1
	tagBadgeInfo
	tagBadges
	tagBits
	tagColor
	tagDisplayName
	tagEmotes
	tagEmoteSets
	tagID
	tagMod
	tagRoomID
	tagSubscriber
	tagSentTS
	tagTurbo
	tagUserID
	tagUserType
	tagTargetMsgID
	tagTargetUserID
	tagLogin
	tagMsgID
	tagSystemMsg
	tagVIP
	tagFirstMsg
	tagReturningChatter
	tagCustomRewardID
	tagReplyParentMsgID
	tagReplyParentUserID
	tagReplyParentUserLogin
	tagReplyParentDisplayName
	tagReplyParentMsgBody
	tagEmoteOnly
	tagFollowersOnly
	tagR9K
	tagRituals
	tagSlow
	tagSubsOnly
	tagThreadID
	tagMessageID

	tagParamCumulativeMonths
	tagParamDisplayName
	tagParamLogin
	tagParamMonths
	tagParamPromoGiftTotal
	tagParamPromoName
	tagParamRecipientDisplayName
	tagParamRecipientID
	tagParamRecipientUserName
	tagParamSenderLogin
	tagParamSenderName
	tagParamShouldShareStreak
	tagParamStreakMonths
	tagParamSubPlan
	tagParamSubPlanName
	tagParamViewerCount
	tagParamRitualName
	tagParamThreshold
	tagParamGiftMonths
	tagParamMultimonthDuration
	tagParamMultimonthTenure
	tagParamWasGifted
	tagParamMassGiftCount
	tagParamGoalContributionType
	tagParamGoalCurrentContributions
	tagParamGoalTargetContributions
	tagParamGoalUserContributions
	tagParamColor
	tagParamProfileImageURL
	tagParamPriorGifterAnonymous
	tagParamPriorGifterDisplayName
	tagParamPriorGifterID
	tagParamPriorGifterUserName
)

var tagRegistry = map[string]tagKey{
	"ban-duration":              tagBanDuration,
	"badge-info":                tagBadgeInfo,
	"badges":                    tagBadges,
	"bits":                      tagBits,
	"color":                     tagColor,
	"display-name":              tagDisplayName,
	"emotes":                    tagEmotes,
	"emote-sets":                tagEmoteSets,
	"id":                        tagID,
	"mod":                       tagMod,
	"room-id":                   tagRoomID,
	"subscriber":                tagSubscriber,
	"tmi-sent-ts":               tagSentTS,
	"turbo":                     tagTurbo,
	"user-id":                   tagUserID,
	"user-type":                 tagUserType,
	"target-msg-id":             tagTargetMsgID,
	"target-user-id":            tagTargetUserID,
	"login":                     tagLogin,
	"msg-id":                    tagMsgID,
	"system-msg":                tagSystemMsg,
	"vip":                       tagVIP,
	"first-msg":                 tagFirstMsg,
	"returning-chatter":         tagReturningChatter,
	"custom-reward-id":          tagCustomRewardID,
	"reply-parent-msg-id":       tagReplyParentMsgID,
	"reply-parent-user-id":      tagReplyParentUserID,
	"reply-parent-user-login":   tagReplyParentUserLogin,
	"reply-parent-display-name": tagReplyParentDisplayName,
	"reply-parent-msg-body":     tagReplyParentMsgBody,
	"emote-only":                tagEmoteOnly,
	"followers-only":            tagFollowersOnly,
	"r9k":                       tagR9K,
	"rituals":                   tagRituals,
	"slow":                      tagSlow,
	"subs-only":                 tagSubsOnly,
	"thread-id":                 tagThreadID,
	"message-id":                tagMessageID,

	"msg-param-cumulative-months":          tagParamCumulativeMonths,
	"msg-param-displayName":                tagParamDisplayName,
	"msg-param-login":                      tagParamLogin,
	"msg-param-months":                     tagParamMonths,
	"msg-param-promo-gift-total":           tagParamPromoGiftTotal,
	"msg-param-promo-name":                 tagParamPromoName,
	"msg-param-recipient-display-name":     tagParamRecipientDisplayName,
	"msg-param-recipient-id":               tagParamRecipientID,
	"msg-param-recipient-user-name":        tagParamRecipientUserName,
	"msg-param-sender-login":               tagParamSenderLogin,
	"msg-param-sender-name":                tagParamSenderName,
	"msg-param-should-share-streak":        tagParamShouldShareStreak,
	"msg-param-streak-months":              tagParamStreakMonths,
	"msg-param-sub-plan":                   tagParamSubPlan,
	"msg-param-sub-plan-name":              tagParamSubPlanName,
	"msg-param-viewerCount":                tagParamViewerCount,
	"msg-param-ritual-name":                tagParamRitualName,
	"msg-param-threshold":                  tagParamThreshold,
	"msg-param-gift-months":                tagParamGiftMonths,
	"msg-param-multimonth-duration":        tagParamMultimonthDuration,
	"msg-param-multimonth-tenure":          tagParamMultimonthTenure,
	"msg-param-was-gifted":                 tagParamWasGifted,
	"msg-param-mass-gift-count":            tagParamMassGiftCount,
	"msg-param-goal-contribution-type":     tagParamGoalContributionType,
	"msg-param-goal-current-contributions": tagParamGoalCurrentContributions,
	"msg-param-goal-target-contributions":  tagParamGoalTargetContributions,
	"msg-param-goal-user-contributions":    tagParamGoalUserContributions,
	"msg-param-color":                      tagParamColor,
	"msg-param-profileImageURL":            tagParamProfileImageURL,
	"msg-param-prior-gifter-anonymous":     tagParamPriorGifterAnonymous,
	"msg-param-prior-gifter-display-name":  tagParamPriorGifterDisplayName,
	"msg-param-prior-gifter-id":            tagParamPriorGifterID,
	"msg-param-prior-gifter-user-name":     tagParamPriorGifterUserName,
}

// Служебные теги клиента, которые не нужны ни одному сообщению.
var ignoredTags = map[string]struct{}{
	"flags":                  {},
	"client-nonce":           {},
	"msg-param-origin-id":    {},
	"msg-param-sender-count": {},
}

// DecodeTags парсером без логирования.
func DecodeTags(cmd Command, raw []string) (Tags, bool) {
	return defaultParser.DecodeTags(cmd, raw)
}

// DecodeTags превращает сырые теги строки в Tags. Второе значение сообщает,
// пришли ли теги вообще: без CAP twitch.tv/tags (fast mode) их нет, и нули
// в Tags ничего не значат.
func (p *Parser) DecodeTags(cmd Command, raw []string) (Tags, bool) {
	t := newTags()
	for _, token := range raw {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			continue
		}
		if _, skip := ignoredTags[key]; skip {
			continue
		}
		k, known := tagRegistry[key]
		if !known {
			p.log.Warn().Str("command", cmd.String()).Str("tag", key).Msg("unknown tag")
			continue
		}
		p.decodeTag(&t, cmd, k, key, value)
	}
	return t, len(raw) > 0
}

func (p *Parser) decodeTag(t *Tags, cmd Command, k tagKey, key, value string) {
	mp := &t.Params
	switch k {
	case tagBanDuration:
		p.setInt(&t.BanDuration, key, value)
	case tagBadgeInfo:
		t.BadgeInfo = ParseBadges(value)
	case tagBadges:
		t.Badges = ParseBadges(value)
	case tagBits:
		p.setInt(&t.Bits, key, value)
	case tagColor:
		c, ok := ParseColor(value)
		if !ok {
			p.log.Warn().Str("tag", key).Str("value", value).Msg("malformed color")
		}
		t.Color = c
	case tagDisplayName:
		t.DisplayName = value
	case tagEmotes:
		t.Emotes = ParseEmotes(value)
	case tagEmoteSets:
		t.EmoteSets = ParseEmoteSets(value)
	case tagID:
		t.ID = p.guid(key, value)
	case tagMod:
		t.Mod = value == "1"
	case tagRoomID:
		t.RoomID = value
	case tagSubscriber:
		t.Subscriber = value == "1"
	case tagSentTS:
		if value == "" {
			return
		}
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			t.SentTimestamp = n
		} else {
			p.log.Warn().Str("tag", key).Str("value", value).Msg("malformed integer")
		}
	case tagTurbo:
		t.Turbo = value == "1"
	case tagUserID:
		t.UserID = value
	case tagUserType:
		ut, ok := userTypes[value]
		if !ok {
			ut = UserTypeUnknown
			p.log.Warn().Str("tag", key).Str("value", value).Msg("unknown user type")
		}
		t.UserType = ut
	case tagTargetMsgID:
		t.TargetMsgID = value
	case tagTargetUserID:
		t.TargetUserID = value
	case tagLogin:
		t.Login = value
	case tagMsgID:
		switch cmd {
		case CommandNotice:
			t.NoticeID = value
		case CommandUserNotice:
			kind, ok := userNoticeKinds[value]
			if !ok {
				p.log.Warn().Str("tag", key).Str("value", value).Msg("unknown usernotice kind")
			}
			t.NoticeKind = kind
		default:
			t.MsgID = value
		}
	case tagSystemMsg:
		t.SystemMsg = UnescapeSystemMsg(value)
	case tagVIP:
		t.VIP = true
	case tagFirstMsg:
		t.FirstMsg = value == "1"
	case tagReturningChatter:
		t.ReturningChatter = value == "1"
	case tagCustomRewardID:
		t.CustomRewardID = p.guid(key, value)
	case tagReplyParentMsgID:
		t.ReplyParentMsgID = p.guid(key, value)
	case tagReplyParentUserID:
		t.ReplyParentUserID = value
	case tagReplyParentUserLogin:
		t.ReplyParentUserLogin = value
	case tagReplyParentDisplayName:
		t.ReplyParentDisplayName = value
	case tagReplyParentMsgBody:
		t.ReplyParentMsgBody = value
	case tagEmoteOnly:
		t.EmoteOnly = value == "1"
	case tagFollowersOnly:
		p.setInt(&t.FollowersOnly, key, value)
	case tagR9K:
		t.R9K = value == "1"
	case tagRituals:
		t.Rituals = value == "1"
	case tagSlow:
		p.setInt(&t.Slow, key, value)
	case tagSubsOnly:
		t.SubsOnly = value == "1"
	case tagThreadID:
		t.ThreadID = value
	case tagMessageID:
		t.MessageID = value

	case tagParamCumulativeMonths:
		p.setInt(&mp.CumulativeMonths, key, value)
	case tagParamDisplayName:
		mp.DisplayName = value
	case tagParamLogin:
		mp.Login = value
	case tagParamMonths:
		p.setInt(&mp.Months, key, value)
	case tagParamPromoGiftTotal:
		p.setInt(&mp.PromoGiftTotal, key, value)
	case tagParamPromoName:
		mp.PromoName = value
	case tagParamRecipientDisplayName:
		mp.RecipientDisplayName = value
	case tagParamRecipientID:
		mp.RecipientID = value
	case tagParamRecipientUserName:
		mp.RecipientUsername = value
	case tagParamSenderLogin:
		mp.SenderLogin = value
	case tagParamSenderName:
		mp.SenderName = value
	case tagParamShouldShareStreak:
		mp.ShouldShareStreak = value == "1"
	case tagParamStreakMonths:
		p.setInt(&mp.StreakMonths, key, value)
	case tagParamSubPlan:
		plan, ok := subPlans[value]
		if !ok {
			p.log.Warn().Str("tag", key).Str("value", value).Msg("unknown sub plan")
		}
		mp.SubPlan = plan
	case tagParamSubPlanName:
		mp.SubPlanName = value
	case tagParamViewerCount:
		p.setInt(&mp.ViewerCount, key, value)
	case tagParamRitualName:
		mp.RitualName = value
	case tagParamThreshold:
		p.setInt(&mp.Threshold, key, value)
	case tagParamGiftMonths:
		p.setInt(&mp.GiftMonths, key, value)
	case tagParamMultimonthDuration:
		p.setInt(&mp.MultimonthDuration, key, value)
	case tagParamMultimonthTenure:
		p.setInt(&mp.MultimonthTenure, key, value)
	case tagParamWasGifted:
		mp.WasGifted = value == "1" || value == "true"
	case tagParamMassGiftCount:
		p.setInt(&mp.MassGiftCount, key, value)
	case tagParamGoalContributionType:
		goal, ok := goalContributionTypes[value]
		if !ok {
			p.log.Warn().Str("tag", key).Str("value", value).Msg("unknown goal contribution type")
		}
		mp.GoalContributionType = goal
	case tagParamGoalCurrentContributions:
		p.setInt(&mp.GoalCurrentContributions, key, value)
	case tagParamGoalTargetContributions:
		p.setInt(&mp.GoalTargetContributions, key, value)
	case tagParamGoalUserContributions:
		p.setInt(&mp.GoalUserContributions, key, value)
	case tagParamColor:
		mp.Color = value
	case tagParamProfileImageURL:
		mp.ProfileImageURL = value
	case tagParamPriorGifterAnonymous:
		mp.PriorGifterAnonymous = value == "1" || value == "true"
	case tagParamPriorGifterDisplayName:
		mp.PriorGifterDisplayName = value
	case tagParamPriorGifterID:
		mp.PriorGifterID = value
	case tagParamPriorGifterUserName:
		mp.PriorGifterUsername = value
	}
}

// setInt оставляет значение по умолчанию, если число не разобралось.
// Пустое значение у Twitch обычное дело, предупреждения не нужно.
func (p *Parser) setInt(dst *int, key, value string) {
	if value == "" {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		p.log.Warn().Str("tag", key).Str("value", value).Msg("malformed integer")
		return
	}
	*dst = n
}

func (p *Parser) guid(key, value string) uuid.UUID {
	if value == "" {
		return uuid.Nil
	}
	id, ok := parseGUID(value)
	if !ok {
		p.log.Warn().Str("tag", key).Str("value", value).Msg("malformed guid")
	}
	return id
}
