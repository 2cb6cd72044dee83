package rera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-automation/models"
)

const listingHTML = `
<table id="approvedTable">
  <thead><tr><th>S.NO</th><th>ACK NO</th><th>REGISTRATION NO</th><th>STATUS</th><th>PROMOTER</th><th>PROJECT</th></tr></thead>
  <tbody>
    <tr><td>1</td><td>ACK/1</td><td> PRM/KA/RERA/1251/309/PR/101 </td><td>APPROVED</td><td>Acme  Builders</td><td>Lake View</td><td><a onclick="showFileApplicationPreview(1)">View</a></td></tr>
    <tr><td colspan="6">loading</td></tr>
    <tr><td>2</td><td>ACK/2</td><td>PRM/KA/RERA/1251/309/PR/100</td><td>APPROVED</td><td>Hill Homes</td><td>Hill
      Crest</td></tr>
  </tbody>
</table>`

func TestParseListing(t *testing.T) {
	rows, err := ParseListing(listingHTML)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, models.ListingRow{
		Index:          0,
		RegistrationID: "PRM/KA/RERA/1251/309/PR/101",
		PromoterName:   "Acme Builders",
		ProjectName:    "Lake View",
	}, rows[0])
	assert.Equal(t, 2, rows[1].Index, "index counts skipped rows")
	assert.Equal(t, "Hill Crest", rows[1].ProjectName)
}

func TestParseListing_NoTable(t *testing.T) {
	rows, err := ParseListing(`<div>maintenance</div>`)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

const detailHTML = `
<div id="menu2">
  <div class="row">
    <div class="col"><p>Project Address</p></div>
    <div class="col"><p>Survey 12, Whitefield, Bengaluru</p></div>
  </div>
  <div class="row">
    <div class="col"><label>Project Type</label></div>
    <div class="col"><p>Residential</p></div>
  </div>
  <div class="row">
    <div class="col"><p>Project Sub Type</p></div>
    <div class="col"><p>Apartment</p></div>
  </div>
  <div class="row">
    <div class="col"><p>Total Area Of Land (Sq Mtr)</p></div>
    <div class="col"><p>12000</p></div>
  </div>
  <div class="row">
    <div class="col"><p>Total Area (Sq Mtr)</p></div>
    <div class="col"><p>8000</p></div>
  </div>
  <div class="row">
    <div class="col"><p>Total Number of Flats</p></div>
    <div class="col"><p>120</p></div>
  </div>
  <div class="row">
    <div class="col"><p>Proposed Completion Date</p></div>
    <div class="col"><p>31-12-2029</p></div>
  </div>
  <div class="row">
    <div class="col"><p>Latitude</p></div>
    <div class="col"><p>12.97</p></div>
  </div>
  <div class="row">
    <div class="col"><p>Longitude</p></div>
    <div class="col"><p>   </p></div>
  </div>
  <div class="row">
    <div class="col"><p>No. of Covered Parking</p></div>
    <div class="col"><p>150</p></div>
  </div>
  <div class="row">
    <div class="col"><p>Number of Towers</p></div>
    <div class="col"><p>3</p></div>
  </div>
  <table class="table table-bordered">
    <tbody>
      <tr><td>1</td><td>2BHK</td><td>80</td><td>1100</td><td>90</td><td>0</td></tr>
      <tr><td></td><td></td><td></td><td></td><td></td><td></td></tr>
      <tr><td>2</td><td>3BHK</td><td>40</td><td>1500</td><td>120</td><td>0</td></tr>
      <tr><td>3</td><td></td><td>5</td><td>x</td><td>x</td><td>x</td></tr>
      <tr><td>short</td><td>row</td></tr>
    </tbody>
  </table>
  <table class="table table-bordered">
    <tbody>
      <tr><td>1</td><td>2BHK</td><td>80</td><td>1100</td><td>90</td><td>0</td></tr>
      <tr><td>2</td><td>3BHK</td><td>40</td><td>1500</td><td>120</td><td>0</td></tr>
    </tbody>
  </table>
</div>`

func TestParseDetail(t *testing.T) {
	row := models.ListingRow{RegistrationID: "R-1", PromoterName: "Acme", ProjectName: "Lake View"}

	p, err := ParseDetail(detailHTML, row)
	require.NoError(t, err)

	assert.Equal(t, "R-1", p.RegistrationID)
	assert.Equal(t, "Acme", p.PromoterName)
	assert.Equal(t, "Survey 12, Whitefield, Bengaluru", p.Address)
	assert.Equal(t, "Residential", p.ProjectType)
	assert.Equal(t, "Apartment", p.ProjectSubtype)
	assert.Equal(t, "8000", p.TotalArea)
	assert.Equal(t, "12000", p.TotalLandArea)
	assert.Equal(t, "120", p.TotalUnits)
	assert.Equal(t, "31-12-2029", p.CompletionDate)
	assert.Equal(t, "12.97", p.Latitude)
	assert.Equal(t, models.NotAvailable, p.Longitude, "blank value")
	assert.Equal(t, "150", p.CoveredParking)
	assert.Equal(t, models.NotAvailable, p.TotalOpenArea, "missing label")
	assert.Equal(t, "3", p.TowerCount)
}

func TestParseInventory_StopsAtWraparound(t *testing.T) {
	inv, err := ParseInventory(detailHTML)
	require.NoError(t, err)

	require.Len(t, inv, 2)
	assert.Equal(t, models.InventoryRow{
		UnitType: "2BHK", Count: "80", CarpetArea: "1100", BalconyArea: "90", TerraceArea: "0",
	}, inv[0])
	assert.Equal(t, "3BHK", inv[1].UnitType)
}

func TestParseInventory_Empty(t *testing.T) {
	inv, err := ParseInventory(`<p>No inventory</p>`)
	require.NoError(t, err)
	assert.NotNil(t, inv)
	assert.Empty(t, inv)
}
