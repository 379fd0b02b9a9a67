package gift

import "regexp"

var mobileUA = regexp.MustCompile(`(?i)Android|webOS|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)

// IsMobileUserAgent reports whether ua identifies a device that can open UPI links.
func IsMobileUserAgent(ua string) bool {
	return mobileUA.MatchString(ua)
}
