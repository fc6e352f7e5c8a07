package e2e

import (
	"os/exec"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gexec"

	"github.com/voluzi/peakmem/pkg/sampler"
	"github.com/voluzi/peakmem/pkg/utils"
)

// Run starts peakmem with args and returns its session.
func Run(args ...string) *gexec.Session {
	session, err := gexec.Start(exec.Command(binary, args...), GinkgoWriter, GinkgoWriter)
	Expect(err).NotTo(HaveOccurred())
	return session
}

// LastRecord parses the last record of a peak log for n processes.
func LastRecord(path string, n int) sampler.Record {
	var record sampler.Record
	Eventually(func() error {
		line, err := utils.LastLine(path, true)
		if err != nil {
			return err
		}
		record, err = sampler.ParseRecord(strings.TrimSpace(line), n)
		return err
	}).Should(Succeed())
	return record
}
