package icl_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestICL(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ICL Suite")
}
