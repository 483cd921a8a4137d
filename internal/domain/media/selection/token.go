// Package selection encodes quality choices into inline button callback data and back.
//
// A token has the shape "<action>|<video-id>|<format-id>". The delimiter is not
// escaped: provider video ids must not contain '|'. Telegram caps callback data at
// 64 bytes, which YouTube ids (11 chars) and itags comfortably fit.
package selection

import (
	"strconv"
	"strings"

	"github.com/Marinerbyte/Ytmagic/internal/domain/media/entities"
	mediaerrors "github.com/Marinerbyte/Ytmagic/internal/domain/media/errors"
)

const (
	delimiter  = "|"
	fieldCount = 3
)

// Encode builds the download token for one candidate encoding
func Encode(videoID string, formatID int) string {
	return entities.ActionDownload + delimiter + videoID + delimiter + strconv.Itoa(formatID)
}

// Decode parses a token. Any token that is not exactly three fields with an
// integer format id and a non-empty video id fails with a malformed TokenError.
func Decode(token string) (entities.Selection, error) {
	fields := strings.Split(token, delimiter)
	if len(fields) != fieldCount {
		return entities.Selection{}, &mediaerrors.TokenError{Reason: mediaerrors.ReasonMalformed, Token: token}
	}

	action, videoID, rawFormat := fields[0], fields[1], fields[2]
	if action == "" || videoID == "" {
		return entities.Selection{}, &mediaerrors.TokenError{Reason: mediaerrors.ReasonMalformed, Token: token}
	}

	formatID, err := strconv.Atoi(rawFormat)
	if err != nil {
		return entities.Selection{}, &mediaerrors.TokenError{Reason: mediaerrors.ReasonMalformed, Token: token}
	}

	return entities.Selection{Action: action, VideoID: videoID, FormatID: formatID}, nil
}
