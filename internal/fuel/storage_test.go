package fuel

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		var (
			filename  string
			savedPath string
			err       error
		)

		BeforeEach(func() {
			filename = "test-id_pump.jpg"
		})

		JustBeforeEach(func() {
			savedPath, err = storage.Save(filename, []byte("test file content"))
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the name to fetch it by", func() {
				Expect(savedPath).To(Equal(filename))
			})

			It("should save the file to disk", func() {
				Expect(filepath.Join(tmpDir, filename)).To(BeAnExistingFile())
			})
		})

		When("the name contains directories", func() {
			BeforeEach(func() {
				filename = "../../outside.jpg"
			})

			It("should keep the file inside the base directory", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(savedPath).To(Equal("outside.jpg"))
				Expect(filepath.Join(tmpDir, "outside.jpg")).To(BeAnExistingFile())
			})
		})
	})

	Describe("Get", func() {
		When("file exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("pump.png", []byte("png data"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the file data", func() {
				data, err := storage.Get("pump.png")
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(Equal([]byte("png data")))
			})
		})

		When("file does not exist", func() {
			It("returns the error", func() {
				_, err := storage.Get("missing.png")
				Expect(err).To(MatchError(ContainSubstring("reading file")))
			})
		})
	})

	Describe("Delete", func() {
		When("file exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("pump.png", []byte("png data"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("should remove the file from disk", func() {
				Expect(storage.Delete("pump.png")).To(Succeed())
				Expect(filepath.Join(tmpDir, "pump.png")).NotTo(BeAnExistingFile())
			})
		})

		When("file does not exist", func() {
			It("returns the error", func() {
				Expect(storage.Delete("missing.png")).To(MatchError(ContainSubstring("deleting file")))
			})
		})
	})

	Describe("NewLocalStorage", func() {
		It("should create a missing directory", func() {
			dir := filepath.Join(tmpDir, "nested", "receipts")
			_, err := NewLocalStorage(dir)
			Expect(err).NotTo(HaveOccurred())

			info, statErr := os.Stat(dir)
			Expect(statErr).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("should accept an existing directory", func() {
			_, err := NewLocalStorage(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
