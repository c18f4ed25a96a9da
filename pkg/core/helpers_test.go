package core

import (
	"com.github.tunahansezen/kubeboot/pkg/cluster"
	"com.github.tunahansezen/kubeboot/pkg/config/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CommentSwapEntries", func() {
	It("comments active swap lines once", func() {
		fstab := "UUID=1 / ext4 defaults 0 1\n/swap.img\tnone\tswap\tsw\t0\t0\n#/old none swap sw 0 0\n"
		once := CommentSwapEntries(fstab)
		Expect(once).To(Equal("UUID=1 / ext4 defaults 0 1\n#/swap.img\tnone\tswap\tsw\t0\t0\n#/old none swap sw 0 0\n"))
		Expect(CommentSwapEntries(once)).To(Equal(once))
	})

	It("leaves non-swap entries that mention swap alone", func() {
		fstab := "/dev/sdb1 /mnt/swapdata ext4 defaults 0 2\n"
		Expect(CommentSwapEntries(fstab)).To(Equal(fstab))
	})
})

var _ = Describe("ParseRouteSource", func() {
	It("returns the src address", func() {
		Expect(ParseRouteSource("1.1.1.1 via 192.168.1.1 dev enp1s0 src 192.168.1.20 uid 0\n    cache").String()).
			To(Equal("192.168.1.20"))
	})

	It("returns nil without a src field", func() {
		Expect(ParseRouteSource("RTNETLINK answers: Network is unreachable")).To(BeNil())
	})
})

var _ = Describe("PatchSystemdCgroup", func() {
	It("enables the systemd cgroup driver keeping the indentation", func() {
		patched, found := PatchSystemdCgroup("  [options]\n            SystemdCgroup = false\n")
		Expect(found).To(BeTrue())
		Expect(patched).To(Equal("  [options]\n            SystemdCgroup = true\n"))
	})

	It("reports a config without the setting", func() {
		_, found := PatchSystemdCgroup("version = 2\n")
		Expect(found).To(BeFalse())
	})
})

var _ = Describe("Port", func() {
	It("formats ranges per firewall", func() {
		p := Port{30000, 32767, "tcp"}
		Expect(p.firewalld()).To(Equal("30000-32767/tcp"))
		Expect(p.ufw()).To(Equal("30000:32767/tcp"))
		Expect(Port{4789, 4789, "udp"}.ufw()).To(Equal("4789/udp"))
	})
})

var _ = Describe("ParseRole", func() {
	It("accepts master and worker", func() {
		Expect(ParseRole("Master")).To(Equal(RoleMaster))
		Expect(ParseRole("worker")).To(Equal(RoleWorker))
		_, err := ParseRole("etcd")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("PermissiveSelinux", func() {
	It("keeps the surrounding lines and newlines", func() {
		Expect(PermissiveSelinux("SELINUX=enforcing\n")).To(Equal("SELINUX=permissive\n"))
		Expect(PermissiveSelinux("SELINUX=enforcing \n\nSELINUXTYPE=targeted\n")).
			To(Equal("SELINUX=permissive\n\nSELINUXTYPE=targeted\n"))
		Expect(PermissiveSelinux("SELINUX=disabled\n")).To(Equal("SELINUX=disabled\n"))
	})
})

var _ = Describe("promptPolicy", func() {
	It("falls back to the default limits", func() {
		Expect(promptPolicy(model.Prompt{})).To(Equal(cluster.DefaultPolicy()))
	})

	It("takes the configured limits", func() {
		Expect(promptPolicy(model.Prompt{MaxAttempts: 7, MaxEmptyReads: 2, ConfirmWord: "RESET"})).
			To(Equal(cluster.Policy{MaxAttempts: 7, MaxEmptyReads: 2, ConfirmWord: "RESET"}))
	})
})
