package jobs_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/parlatext/parlatext/internal/jobs"
)

func TestJobs(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Jobs Suite")
}

var _ = Describe("TranscribeArgs", func() {
	Describe("Kind", func() {
		It("returns the correct job kind", func() {
			args := jobs.TranscribeArgs{}
			Expect(args.Kind()).To(Equal("transcribe"))
		})
	})

	Describe("InsertOpts", func() {
		It("returns default insert options", func() {
			args := jobs.TranscribeArgs{}
			opts := args.InsertOpts()
			Expect(opts.Queue).To(Equal(jobs.DefaultQueue))
			Expect(opts.MaxAttempts).To(Equal(jobs.MaxJobRetries))
		})
	})

	Describe("RecoveryKey", func() {
		It("changes the serialized args identity", func() {
			id := uuid.New()
			original := jobs.TranscribeArgs{TranscriptionID: id, AudioRef: "s3://bucket/a.wav"}
			recovered := jobs.TranscribeArgs{TranscriptionID: id, AudioRef: "s3://bucket/a.wav", RecoveryKey: "recovery-key"}

			originalJSON, err := json.Marshal(original)
			Expect(err).To(BeNil())
			recoveredJSON, err := json.Marshal(recovered)
			Expect(err).To(BeNil())
			Expect(originalJSON).ToNot(Equal(recoveredJSON))
		})

		It("is omitted from regular job args", func() {
			data, err := json.Marshal(jobs.TranscribeArgs{TranscriptionID: uuid.New()})
			Expect(err).To(BeNil())
			Expect(string(data)).ToNot(ContainSubstring("recovery_key"))
		})
	})
})

var _ = Describe("TranscribeWorker", func() {
	Describe("Timeout", func() {
		It("returns the job timeout", func() {
			worker := jobs.NewTranscribeWorker(nil, nil, nil, nil)
			Expect(worker.Timeout(nil)).To(Equal(jobs.JobTimeout))
		})
	})
})
