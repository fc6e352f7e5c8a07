package e2e

import (
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/gexec"
)

var _ = Describe("sample", func() {
	It("records peaks until terminated", func() {
		output := filepath.Join(GinkgoT().TempDir(), "peaks.log")
		self := strconv.Itoa(os.Getpid())

		session := Run("sample", self, output, "--interval", "10")
		record := LastRecord(output, 1)
		Expect(record.Peaks).To(HaveLen(1))
		Expect(record.Peaks[0]).To(BeNumerically(">", 0))
		Expect(record.Total).To(Equal(record.Peaks[0]))

		session.Signal(syscall.SIGTERM)
		Eventually(session).Should(gexec.Exit(128 + int(syscall.SIGTERM)))
	})

	It("keeps peaks monotonic across records", func() {
		output := filepath.Join(GinkgoT().TempDir(), "peaks.log")
		self := strconv.Itoa(os.Getpid())

		session := Run("sample", self, output, "--interval", "10", "--max-lines", "5", "--keep-lines", "2")
		defer session.Terminate()

		first := LastRecord(output, 1)
		Eventually(func() uint64 {
			return LastRecord(output, 1).Total
		}).Should(BeNumerically(">=", first.Total))
	})

	It("rejects invalid process ids", func() {
		session := Run("sample", "nope", filepath.Join(GinkgoT().TempDir(), "peaks.log"))
		Eventually(session).Should(gexec.Exit(1))
	})
})

var _ = Describe("measure", func() {
	It("reports the peak of a command", func() {
		session := Run("measure", "--", "sleep", "0.2")
		Eventually(session).Should(gexec.Exit(0))
		Expect(session.Out).To(gbytes.Say(`RAM usage: command: -- / \d`))
	})

	It("prints a table with the notebook row", func() {
		session := Run("measure", "-n", "-t", "--notebook-pid", strconv.Itoa(os.Getpid()), "--", "sleep", "0.1")
		Eventually(session).Should(gexec.Exit(0))
		Expect(session.Out).To(gbytes.Say(`RAM usage \|   current`))
		Expect(session.Out).To(gbytes.Say(`command`))
		Expect(session.Out).To(gbytes.Say(`notebook`))
	})

	It("rejects intervals below the floor", func() {
		session := Run("measure", "-i", "5", "--", "true")
		Eventually(session).Should(gexec.Exit(1))
		Expect(session.Err).To(gbytes.Say("interval must be greater than or equal to 10 milliseconds"))
	})

	It("fails when the command fails", func() {
		session := Run("measure", "--", "false")
		Eventually(session).Should(gexec.Exit(1))
	})
})

var _ = Describe("usage", func() {
	It("reports the notebook memory", func() {
		session := Run("usage", "-n", "--notebook-pid", strconv.Itoa(os.Getpid()), "-o", "json")
		Eventually(session).Should(gexec.Exit(0))
		Expect(session.Out).To(gbytes.Say(`"current_bytes"`))
	})

	It("requires a scope", func() {
		session := Run("usage")
		Eventually(session).Should(gexec.Exit(1))
	})
})
