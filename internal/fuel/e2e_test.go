package fuel_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"google.golang.org/api/option"

	"github.com/zombor/fuel-logger/internal/extraction"
	"github.com/zombor/fuel-logger/internal/fuel"
	"github.com/zombor/fuel-logger/internal/ledger"
	"github.com/zombor/fuel-logger/internal/scanning"
)

// textScanner returns fixed OCR output
type textScanner struct {
	text string
}

func (s *textScanner) ReadText(imageData []byte, contentType string) (string, error) {
	return s.text, nil
}

func (s *textScanner) Close() error {
	return nil
}

var _ = Describe("Receipt upload end to end", func() {
	var (
		tempDir     string
		db          *fuel.BoltDB
		store       *fuel.LocalStorage
		sheetsAPI   *ghttp.Server
		app         *httptest.Server
		appendCalls int
		lastRow     []interface{}
	)

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
		appendCalls = 0
		lastRow = nil

		var err error
		db, err = fuel.NewBoltDB(filepath.Join(tempDir, "fuel.db"))
		Expect(err).NotTo(HaveOccurred())
		store, err = fuel.NewLocalStorage(filepath.Join(tempDir, "receipts"))
		Expect(err).NotTo(HaveOccurred())

		sheetsAPI = ghttp.NewServer()
		sheetsAPI.RouteToHandler(http.MethodPost, "/v4/spreadsheets/fuel-sheet/values/Fuel:append",
			func(w http.ResponseWriter, r *http.Request) {
				appendCalls++
				var body struct {
					Values [][]interface{} `json:"values"`
				}
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				Expect(body.Values).To(HaveLen(1))
				lastRow = body.Values[0]
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"spreadsheetId":"fuel-sheet"}`))
			})

		sink, err := ledger.NewSheets("fuel-sheet", "Fuel",
			option.WithEndpoint(sheetsAPI.URL()+"/"),
			option.WithHTTPClient(http.DefaultClient),
		)
		Expect(err).NotTo(HaveOccurred())

		scanners := map[scanning.Engine]scanning.Scanner{
			scanning.EngineTesseract: &textScanner{
				text: "SHELL #4411\nDate: 03/14/2024\nTime: 10:15 AM\nGallons 12.500\nTotal Sale $43.75\nInvoice# 9091\nOdometer: 45210\n",
			},
		}
		service := fuel.NewService(db, scanners, scanning.EngineTesseract, store, sink)
		app = httptest.NewServer(fuel.NewServer(service, fuel.BasicAuth{}).Handler())
	})

	AfterEach(func() {
		app.Close()
		sheetsAPI.Close()
		db.Close()
	})

	It("should read, store and log an uploaded receipt", func() {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("file", "pump.jpg")
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte("fake image bytes"))
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Close()).To(Succeed())

		resp, err := http.Post(app.URL+"/api/receipts", writer.FormDataContentType(), &body)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		respBody, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		var receipt fuel.Receipt
		Expect(json.Unmarshal(respBody, &receipt)).To(Succeed())

		By("extracting and deriving the fields")
		Expect(receipt.Fields.Get(extraction.FieldTotal)).To(Equal(extraction.FloatValue(43.75)))
		Expect(receipt.Fields.Get(extraction.FieldGallons)).To(Equal(extraction.FloatValue(12.5)))
		Expect(receipt.Fields.Get(extraction.FieldPricePerGallon)).To(Equal(extraction.FloatValue(3.5)))
		Expect(receipt.Derived).To(Equal([]extraction.Field{extraction.FieldPricePerGallon}))
		Expect(receipt.Missing).To(Equal([]extraction.Field{extraction.FieldAddress}))

		By("storing the uploaded file")
		data, err := store.Get(receipt.Filename)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte("fake image bytes")))

		By("appending one row to the sheet")
		Expect(appendCalls).To(Equal(1))
		Expect(lastRow).To(HaveLen(len(ledger.Header())))
		Expect(lastRow[2]).To(Equal(43.75))
		Expect(lastRow[4]).To(Equal(3.5))
		Expect(lastRow[6]).To(Equal(""))

		By("persisting the logged receipt")
		saved, err := db.GetReceipt(receipt.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(saved.Logged).To(BeTrue())
		Expect(saved.Fields.Get(extraction.FieldOdometer)).To(Equal(extraction.IntValue(45210)))

		By("listing it in the history")
		listResp, err := http.Get(app.URL + "/api/receipts")
		Expect(err).NotTo(HaveOccurred())
		defer listResp.Body.Close()
		var history []fuel.Receipt
		Expect(json.NewDecoder(listResp.Body).Decode(&history)).To(Succeed())
		Expect(history).To(HaveLen(1))
		Expect(history[0].ID).To(Equal(receipt.ID))
	})
})
