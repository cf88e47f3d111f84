package tmi

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const privmsgTags = "badge-info=;badges=turbo/1;color=#0D4200;display-name=TheJollyBeardoBOT;" +
	"emotes=25:0-4,12-16/1902:6-10;id=b34ccfc7-4977-403a-8a94-33c6bac34fb8;mod=0;room-id=1337;" +
	"subscriber=0;tmi-sent-ts=1507246572675;turbo=1;user-id=1337;user-type=global_mod"

func TestDecodeTagsPrivmsg(t *testing.T) {
	tags, present := DecodeTags(CommandPrivmsg, strings.Split(privmsgTags, ";"))
	require.True(t, present)

	assert.Empty(t, tags.BadgeInfo)
	assert.Equal(t, map[string]int{"turbo": 1}, tags.Badges)
	assert.InDelta(t, 0x0D/255.0, tags.Color.R, 1e-9)
	assert.InDelta(t, 0x42/255.0, tags.Color.G, 1e-9)
	assert.InDelta(t, 0.0, tags.Color.B, 1e-9)
	assert.Equal(t, "TheJollyBeardoBOT", tags.DisplayName)
	assert.Equal(t, map[string][]EmoteRange{
		"25":   {{0, 4}, {12, 16}},
		"1902": {{6, 10}},
	}, tags.Emotes)
	assert.Equal(t, uuid.MustParse("b34ccfc7-4977-403a-8a94-33c6bac34fb8"), tags.ID)
	assert.False(t, tags.Mod)
	assert.Equal(t, "1337", tags.RoomID)
	assert.False(t, tags.Subscriber)
	assert.Equal(t, int64(1507246572675), tags.SentTimestamp)
	assert.True(t, tags.Turbo)
	assert.Equal(t, "1337", tags.UserID)
	assert.Equal(t, UserTypeGlobalMod, tags.UserType)
}

func TestDecodeTagsWithoutTags(t *testing.T) {
	tags, present := DecodeTags(CommandPrivmsg, nil)
	assert.False(t, present)
	assert.Equal(t, -1, tags.FollowersOnly)
	assert.Equal(t, UserTypeNormal, tags.UserType)
	assert.Equal(t, uuid.Nil, tags.ID)
}

func TestDecodeTagsPresentEvenIfNothingRecognized(t *testing.T) {
	_, present := DecodeTags(CommandPrivmsg, []string{"flags="})
	assert.True(t, present)
}

func TestDecodeTagsIsDeterministic(t *testing.T) {
	raw := strings.Split(privmsgTags, ";")
	first, _ := DecodeTags(CommandPrivmsg, raw)
	second, _ := DecodeTags(CommandPrivmsg, raw)
	assert.Equal(t, first, second)
}

func TestDecodeTagsUnknownKeyDoesNotAffectOthers(t *testing.T) {
	p, buf := newTestParser()
	raw := strings.Split(privmsgTags, ";")

	want, _ := p.DecodeTags(CommandPrivmsg, raw)
	require.Empty(t, buf.String())

	withUnknown := append([]string{"some-new-tag=42"}, raw...)
	withUnknown = append(withUnknown, "another-one=x")
	got, _ := p.DecodeTags(CommandPrivmsg, withUnknown)

	assert.Equal(t, want, got)
	assert.Contains(t, buf.String(), "unknown tag")
	assert.Contains(t, buf.String(), `"tag":"some-new-tag"`)
	assert.Contains(t, buf.String(), `"tag":"another-one"`)
}

func TestDecodeTagsDropsBareKeysAndIgnoredTags(t *testing.T) {
	p, buf := newTestParser()

	tags, _ := p.DecodeTags(CommandPrivmsg, []string{
		"mod", "flags=0-4:P.3", "client-nonce=abc", "msg-param-origin-id=x", "msg-param-sender-count=0", "turbo=1",
	})
	assert.False(t, tags.Mod)
	assert.True(t, tags.Turbo)
	assert.Empty(t, buf.String())
}

func TestDecodeTagsSplitsOnFirstEquals(t *testing.T) {
	tags, _ := DecodeTags(CommandPrivmsg, []string{"reply-parent-msg-body=a=b"})
	assert.Equal(t, "a=b", tags.ReplyParentMsgBody)
}

func TestDecodeTagsMalformedIntegerKeepsDefault(t *testing.T) {
	p, buf := newTestParser()

	tags, _ := p.DecodeTags(CommandRoomState, []string{"followers-only=abc", "slow=", "emote-only=1"})
	assert.Equal(t, -1, tags.FollowersOnly)
	assert.Zero(t, tags.Slow)
	assert.True(t, tags.EmoteOnly)
	assert.Contains(t, buf.String(), "malformed integer")
}

func TestDecodeTagsBooleans(t *testing.T) {
	tags, _ := DecodeTags(CommandPrivmsg, []string{"mod=true", "subscriber=1", "turbo=0", "first-msg=1", "returning-chatter=0"})
	assert.False(t, tags.Mod)
	assert.True(t, tags.Subscriber)
	assert.False(t, tags.Turbo)
	assert.True(t, tags.FirstMsg)
	assert.False(t, tags.ReturningChatter)
}

func TestDecodeTagsVIPIsPresenceOnly(t *testing.T) {
	tags, _ := DecodeTags(CommandPrivmsg, []string{"vip=0"})
	assert.True(t, tags.VIP)

	tags, _ = DecodeTags(CommandPrivmsg, []string{"vip="})
	assert.True(t, tags.VIP)

	tags, _ = DecodeTags(CommandPrivmsg, []string{"mod=1"})
	assert.False(t, tags.VIP)
}

func TestDecodeTagsMalformedGUID(t *testing.T) {
	p, buf := newTestParser()

	tags, _ := p.DecodeTags(CommandPrivmsg, []string{
		"id=b34ccfc74977403a8a9433c6bac34fb8",
		"custom-reward-id=nope",
		"reply-parent-msg-id=94e6c7ff-bf98-4faa-af5d-7ad633a158a9",
		"display-name=ronni",
	})
	assert.Equal(t, uuid.Nil, tags.ID)
	assert.Equal(t, uuid.Nil, tags.CustomRewardID)
	assert.Equal(t, uuid.MustParse("94e6c7ff-bf98-4faa-af5d-7ad633a158a9"), tags.ReplyParentMsgID)
	assert.Equal(t, "ronni", tags.DisplayName)
	assert.Equal(t, 2, strings.Count(buf.String(), "malformed guid"))
}

func TestDecodeTagsMsgIDDependsOnCommand(t *testing.T) {
	tags, _ := DecodeTags(CommandNotice, []string{"msg-id=delete_message_success"})
	assert.Equal(t, "delete_message_success", tags.NoticeID)
	assert.Empty(t, tags.MsgID)

	tags, _ = DecodeTags(CommandUserNotice, []string{"msg-id=resub"})
	assert.Equal(t, UserNoticeResubscription, tags.NoticeKind)
	assert.Empty(t, tags.NoticeID)

	tags, _ = DecodeTags(CommandPrivmsg, []string{"msg-id=highlighted-message"})
	assert.Equal(t, "highlighted-message", tags.MsgID)
	assert.Equal(t, UserNoticeNone, tags.NoticeKind)
}

func TestDecodeTagsUserNoticeKinds(t *testing.T) {
	p, buf := newTestParser()

	tags, _ := p.DecodeTags(CommandUserNotice, []string{"msg-id=unraid"})
	assert.Equal(t, UserNoticeNone, tags.NoticeKind)
	assert.Empty(t, buf.String())

	tags, _ = p.DecodeTags(CommandUserNotice, []string{"msg-id=charitydonation"})
	assert.Equal(t, UserNoticeNone, tags.NoticeKind)
	assert.Contains(t, buf.String(), "unknown usernotice kind")

	for value, want := range userNoticeKinds {
		tags, _ = DecodeTags(CommandUserNotice, []string{"msg-id=" + value})
		assert.Equal(t, want, tags.NoticeKind, value)
	}
}

func TestDecodeTagsEnumRegistries(t *testing.T) {
	p, buf := newTestParser()

	tags, _ := p.DecodeTags(CommandUserNotice, []string{
		"msg-param-sub-plan=3000",
		"user-type=",
		"msg-param-goal-contribution-type=SUB_POINTS",
	})
	assert.Equal(t, SubPlanTier3, tags.Params.SubPlan)
	assert.Equal(t, UserTypeNormal, tags.UserType)
	assert.Equal(t, GoalContributionSubPoints, tags.Params.GoalContributionType)
	assert.Empty(t, buf.String())

	tags, _ = p.DecodeTags(CommandUserNotice, []string{
		"msg-param-sub-plan=4000",
		"user-type=superuser",
		"msg-param-goal-contribution-type=FOLLOWERS",
	})
	assert.Equal(t, SubPlanNone, tags.Params.SubPlan)
	assert.Equal(t, UserTypeUnknown, tags.UserType)
	assert.Equal(t, GoalContributionUnknown, tags.Params.GoalContributionType)
	assert.Contains(t, buf.String(), "unknown sub plan")
	assert.Contains(t, buf.String(), "unknown user type")
	assert.Contains(t, buf.String(), "unknown goal contribution type")
}

func TestDecodeTagsColor(t *testing.T) {
	p, buf := newTestParser()

	tags, _ := p.DecodeTags(CommandPrivmsg, []string{"color="})
	assert.Zero(t, tags.Color)
	assert.Empty(t, buf.String())

	tags, _ = p.DecodeTags(CommandPrivmsg, []string{"color=#F0"})
	assert.Zero(t, tags.Color)
	assert.Contains(t, buf.String(), "malformed color")
}

func TestDecodeTagsMessageParams(t *testing.T) {
	tags, _ := DecodeTags(CommandUserNotice, []string{
		"msg-param-displayName=Raider",
		"msg-param-login=raider",
		"msg-param-viewerCount=15",
		"msg-param-profileImageURL=https://example.com/70x70.png",
		"msg-param-recipient-user-name=friend",
		"msg-param-prior-gifter-anonymous=true",
		"msg-param-was-gifted=false",
		"msg-param-mass-gift-count=5",
		"msg-param-goal-target-contributions=100",
		"system-msg=15\\sraiders\\sfrom\\sRaider",
	})
	mp := tags.Params
	assert.Equal(t, "Raider", mp.DisplayName)
	assert.Equal(t, "raider", mp.Login)
	assert.Equal(t, 15, mp.ViewerCount)
	assert.Equal(t, "https://example.com/70x70.png", mp.ProfileImageURL)
	assert.Equal(t, "friend", mp.RecipientUsername)
	assert.True(t, mp.PriorGifterAnonymous)
	assert.False(t, mp.WasGifted)
	assert.Equal(t, 5, mp.MassGiftCount)
	assert.Equal(t, 100, mp.GoalTargetContributions)
	assert.Equal(t, "15 raiders from Raider", tags.SystemMsg)
}
