//go:build !windows

package fileinfo

import (
	"os"
	"os/user"
	"strconv"
	"syscall"
)

// lookupOwnership extracts the numeric owner/group and resolves them to
// names, tolerating lookup failures by leaving the name empty (per spec,
// uname/gname "may be empty when lookup failed").
func lookupOwnership(info os.FileInfo) (uid, gid int, uname, gname string) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, "", ""
	}
	uid = int(stat.Uid)
	gid = int(stat.Gid)

	if u, err := user.LookupId(strconv.Itoa(uid)); err == nil {
		uname = u.Username
	}
	if g, err := user.LookupGroupId(strconv.Itoa(gid)); err == nil {
		gname = g.Name
	}
	return uid, gid, uname, gname
}
