package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
)

var (
	csvFile string
)

func main() {
	csvFilePtr := flag.String("csvFile", csvFile, "file containing entries of a convergence study")
	flag.Parse()
	csvFile = *csvFilePtr
	if len(csvFile) == 0 {
		flag.Usage()
		os.Exit(1)
	}
	fmt.Printf("Input file: %v\n", csvFile)
	studies := readCSV(csvFile)
	for _, cs := range studies {
		fmt.Printf("Title = %s, Order = %d\n", cs.title, cs.order)
		fmt.Printf("%8s %12s %7s %12s %7s %12s %7s\n",
			"cells", "valueL2", "rate", "gradL2", "rate", "postL2", "rate")
		for i := range cs.cells {
			rv, rg, rp := "    -", "    -", "    -"
			if i > 0 {
				// Cells quadruple per uniform refinement, h halves
				hRatio := math.Sqrt(float64(cs.cells[i]) / float64(cs.cells[i-1]))
				rv = fmt.Sprintf("%5.2f", order(cs.valueL2[i-1], cs.valueL2[i], hRatio))
				rg = fmt.Sprintf("%5.2f", order(cs.gradL2[i-1], cs.gradL2[i], hRatio))
				rp = fmt.Sprintf("%5.2f", order(cs.postL2[i-1], cs.postL2[i], hRatio))
			}
			fmt.Printf("%8d %12.4e %7s %12.4e %7s %12.4e %7s\n",
				cs.cells[i], cs.valueL2[i], rv, cs.gradL2[i], rg, cs.postL2[i], rp)
		}
	}
}

func order(coarse, fine, hRatio float64) float64 {
	if coarse <= 0 || fine <= 0 || hRatio <= 1 {
		return 0
	}
	return math.Log(coarse/fine) / math.Log(hRatio)
}

type ConvergenceStudy struct {
	title                   string
	order                   int
	cells                   []int
	valueL2, gradL2, postL2 []float64
}

func NewConvergenceStudy(title string, order int) *ConvergenceStudy {
	return &ConvergenceStudy{
		title: title,
		order: order,
	}
}

func (cs *ConvergenceStudy) Add(cells int, valueL2, gradL2, postL2 float64) {
	cs.cells = append(cs.cells, cells)
	cs.valueL2 = append(cs.valueL2, valueL2)
	cs.gradL2 = append(cs.gradL2, gradL2)
	cs.postL2 = append(cs.postL2, postL2)
}

func readCSV(csvFile string) (studies map[string]*ConvergenceStudy) {
	var (
		records                 [][]string
		err                     error
		f                       *os.File
		ok                      bool
		cs                      *ConvergenceStudy
		valueL2, gradL2, postL2 float64
	)
	studies = make(map[string]*ConvergenceStudy)
	if f, err = os.Open(csvFile); err != nil {
		panic(err)
	}
	r := csv.NewReader(bufio.NewReader(f))
	if records, err = r.ReadAll(); err != nil {
		panic(err)
	}
	for i, rec := range records {
		if i == 0 {
			continue
		}
		title, cellstxt, ntxt := rec[0], rec[1], rec[2]
		n, _ := strconv.Atoi(ntxt)
		cells, _ := strconv.Atoi(cellstxt)
		combTitle := title + ntxt
		if cs, ok = studies[combTitle]; !ok {
			cs = NewConvergenceStudy(title, n)
			studies[combTitle] = cs
		}
		_, _ = fmt.Sscanf(rec[3], "%f", &valueL2)
		_, _ = fmt.Sscanf(rec[4], "%f", &gradL2)
		_, _ = fmt.Sscanf(rec[5], "%f", &postL2)
		cs.Add(cells, valueL2, gradL2, postL2)
	}
	return
}
